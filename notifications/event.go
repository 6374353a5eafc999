package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeInvestment                 Type = "INVESTMENT"
	TypeFundingRoundDeadline       Type = "FUNDING_ROUND_DEADLINE"
	TypeFundingRoundEnded          Type = "FUNDING_ROUND_ENDED"
	TypeFundingRoundChangeProposal Type = "FUNDING_ROUND_CHANGE_PROPOSAL"
)

type UserType string

const (
	UserStartup  UserType = "STARTUP"
	UserInvestor UserType = "INVESTOR"
)

type Event struct {
	ID             uuid.UUID `json:"id"`
	UserID         uint      `json:"user_id"`
	UserType       UserType  `json:"user_type"`
	Type           Type      `json:"type"`
	Text           string    `json:"text"`
	FundingRoundID *uint     `json:"funding_round_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewEvent stamps an id and creation time on a notification.
func NewEvent(userID uint, userType UserType, typ Type, text string) Event {
	return Event{
		ID:        uuid.New(),
		UserID:    userID,
		UserType:  userType,
		Type:      typ,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// ForRound attaches the funding round the event is about.
func (e Event) ForRound(id uint) Event {
	e.FundingRoundID = &id
	return e
}

// Room is the delivery channel of the recipient, e.g. "STARTUP-12".
func (e Event) Room() string {
	return RoomFor(e.UserType, e.UserID)
}

func RoomFor(userType UserType, userID uint) string {
	return fmt.Sprintf("%s-%d", userType, userID)
}

// Emitter accepts notifications fire-and-forget. Implementations must not
// block the caller on delivery.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Sink delivers one event to a transport.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}
