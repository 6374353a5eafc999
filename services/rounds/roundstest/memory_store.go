// Package roundstest provides an in-memory rounds.Store for tests.
package roundstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/services/rounds"
)

// MemoryStore is an in-process rounds.Store. A single mutex serialises units of
// work; a failed unit of work leaves the state untouched.
type MemoryStore struct {
	mu        sync.Mutex
	seq       uint
	startups  map[uint]models.Startup
	investors map[uint]models.Investor
	rounds    map[uint]models.FundingRound
	proposals map[uint]models.ChangeProposal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		startups:  make(map[uint]models.Startup),
		investors: make(map[uint]models.Investor),
		rounds:    make(map[uint]models.FundingRound),
		proposals: make(map[uint]models.ChangeProposal),
	}
}

func (s *MemoryStore) nextID() uint {
	s.seq++
	return s.seq
}

// AddStartup stores s without rounds and returns its id.
func (s *MemoryStore) AddStartup(st models.Startup) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == 0 {
		st.ID = s.nextID()
	}
	if st.Stage == "" {
		st.Stage = models.StartupActive
	}
	st.FundingRounds = nil
	s.startups[st.ID] = st
	return st.ID
}

func (s *MemoryStore) AddInvestor(inv models.Investor) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == 0 {
		inv.ID = s.nextID()
	}
	s.investors[inv.ID] = inv
	return inv.ID
}

// PutRound stores r as-is, bypassing validation. Used to seed state.
func (s *MemoryStore) PutRound(r models.FundingRound) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextID()
	}
	s.rounds[r.ID] = cloneRound(r)
	return r.ID
}

// SetStartupStage changes the startup's lifecycle stage.
func (s *MemoryStore) SetStartupStage(id uint, stage models.StartupStage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.startups[id]
	st.Stage = stage
	s.startups[id] = st
}

// Proposals returns every proposal opened for roundID, oldest first.
func (s *MemoryStore) Proposals(roundID uint) []models.ChangeProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChangeProposal
	for _, p := range s.proposals {
		if p.FundingRoundID == roundID {
			out = append(out, cloneProposal(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Vote records an investor's decision on a proposal.
func (s *MemoryStore) Vote(proposalID, investorID uint, approved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[proposalID]
	if !ok {
		return
	}
	for i := range p.Votes {
		if p.Votes[i].InvestorID == investorID {
			v := approved
			p.Votes[i].Approved = &v
		}
	}
	s.proposals[proposalID] = p
}

func (s *MemoryStore) WithStartup(ctx context.Context, startupID uint, fn func(tx rounds.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.startups[startupID]
	if !ok {
		return rounds.StartupNotFoundError(startupID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	backup := s.snapshot()
	st.FundingRounds = s.roundsOf(startupID)
	tx := &memTx{store: s, startup: &st}
	if err := fn(tx); err != nil {
		s.restore(backup)
		return err
	}
	return nil
}

func (s *MemoryStore) StartupIDs(context.Context) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.startups))
	for id := range s.startups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) Round(_ context.Context, id uint) (*models.FundingRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[id]
	if !ok {
		return nil, rounds.RoundNotFoundError(id)
	}
	out := cloneRound(r)
	if st, ok := s.startups[r.StartupID]; ok {
		out.Startup = &st
	}
	for i := range out.Investments {
		if inv, ok := s.investors[out.Investments[i].InvestorID]; ok {
			inv := inv
			out.Investments[i].Investor = &inv
		}
	}
	return &out, nil
}

func (s *MemoryStore) Rounds(_ context.Context, startupID uint) ([]models.FundingRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.startups[startupID]; !ok {
		return nil, rounds.StartupNotFoundError(startupID)
	}
	return s.roundsOf(startupID), nil
}

func (s *MemoryStore) roundsOf(startupID uint) []models.FundingRound {
	var out []models.FundingRound
	for _, r := range s.rounds {
		if r.StartupID == startupID {
			out = append(out, cloneRound(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

type memState struct {
	seq       uint
	rounds    map[uint]models.FundingRound
	proposals map[uint]models.ChangeProposal
}

func (s *MemoryStore) snapshot() memState {
	st := memState{
		seq:       s.seq,
		rounds:    make(map[uint]models.FundingRound, len(s.rounds)),
		proposals: make(map[uint]models.ChangeProposal, len(s.proposals)),
	}
	for id, r := range s.rounds {
		st.rounds[id] = cloneRound(r)
	}
	for id, p := range s.proposals {
		st.proposals[id] = cloneProposal(p)
	}
	return st
}

func (s *MemoryStore) restore(st memState) {
	s.seq = st.seq
	s.rounds = st.rounds
	s.proposals = st.proposals
}

func cloneRound(r models.FundingRound) models.FundingRound {
	r.Startup = nil
	if r.NotificationsSent != nil {
		r.NotificationsSent = append(r.NotificationsSent[:0:0], r.NotificationsSent...)
	}
	if r.Investments != nil {
		r.Investments = append([]models.Investment(nil), r.Investments...)
		for i := range r.Investments {
			r.Investments[i].Investor = nil
		}
	}
	return r
}

func cloneProposal(p models.ChangeProposal) models.ChangeProposal {
	if p.Votes != nil {
		p.Votes = append([]models.ProposalVote(nil), p.Votes...)
	}
	return p
}

type memTx struct {
	store   *MemoryStore
	startup *models.Startup
}

func (t *memTx) Startup() *models.Startup { return t.startup }

func (t *memTx) Proposals() rounds.ProposalService { return memProposals{store: t.store} }

func (t *memTx) CreateRound(r *models.FundingRound) error {
	r.ID = t.store.nextID()
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	t.store.rounds[r.ID] = cloneRound(*r)
	t.startup.FundingRounds = append(t.startup.FundingRounds, *r)
	return nil
}

func (t *memTx) SaveRounds(list []models.FundingRound) error {
	for _, r := range list {
		r.UpdatedAt = time.Now()
		t.store.rounds[r.ID] = cloneRound(r)
	}
	return nil
}

func (t *memTx) DeleteRound(id uint) error {
	delete(t.store.rounds, id)
	return nil
}

func (t *memTx) AddInvestment(inv *models.Investment) error {
	r, ok := t.store.rounds[inv.FundingRoundID]
	if !ok {
		return rounds.RoundNotFoundError(inv.FundingRoundID)
	}
	inv.ID = t.store.nextID()
	inv.CreatedAt = time.Now()
	r.Investments = append(r.Investments, *inv)
	t.store.rounds[r.ID] = r
	return nil
}

// memProposals runs inside the store's lock.
type memProposals struct {
	store *MemoryStore
}

func (m memProposals) Pending(_ context.Context, roundID uint) (*models.ChangeProposal, error) {
	for _, p := range m.store.proposals {
		if p.FundingRoundID == roundID && p.Status == models.ProposalPendingReview {
			out := cloneProposal(p)
			return &out, nil
		}
	}
	return nil, nil
}

func (m memProposals) Create(_ context.Context, round *models.FundingRound, changes rounds.ProposalChanges) (*models.ChangeProposal, error) {
	p := models.ChangeProposal{
		ID:             m.store.nextID(),
		FundingRoundID: round.ID,
		NewFundingGoal: changes.NewFundingGoal,
		NewEndDate:     changes.NewEndDate,
		Status:         models.ProposalPendingReview,
		CreatedAt:      time.Now(),
	}
	for _, investorID := range rounds.InvestorIDs(round) {
		p.Votes = append(p.Votes, models.ProposalVote{ID: m.store.nextID(), ProposalID: p.ID, InvestorID: investorID})
	}
	m.store.proposals[p.ID] = p
	out := cloneProposal(p)
	return &out, nil
}

func (m memProposals) Delete(_ context.Context, proposalID uint) error {
	delete(m.store.proposals, proposalID)
	return nil
}
