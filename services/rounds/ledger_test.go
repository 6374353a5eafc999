package rounds_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/notifications"
	"github.com/nzhukovskiy/fundlink-api/services/rounds"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"0":                          "0",
		"300.50":                     "300.5",
		" 200.25 ":                   "200.25",
		"1000":                       "1000",
		"0.0000001":                  "0.0000001",
		"0.12345678":                 "0.12345678",
		"1.100000000":                "1.1",
		"9999999999999999999999":     "9999999999999999999999",
		"000000000000000000000001.5": "1.5",
	}
	for in, want := range valid {
		got, err := rounds.ParseAmount(in)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", in, err)
		}
		if !got.Equal(dec(want)) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", in, got, want)
		}
	}

	for _, in := range []string{"", "-1", "+5", "1e3", "abc", "1.2.3", ".5", "5.", "1,000", "NaN",
		"0.123456789", "10000000000000000000000"} {
		if _, err := rounds.ParseAmount(in); !errors.Is(err, rounds.ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q) expected invalid amount, got %v", in, err)
		}
	}
}

func TestAddFundsKeepsColumnPrecision(t *testing.T) {
	f := newFixture(t, day(2025, 1, 10))
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "9999999999999999999999"))
	ctx := context.Background()

	_, err := f.engine.AddFunds(ctx, r.ID, "0.123456789")
	wantCode(t, err, rounds.CodeInvalidAmount)

	if _, err := f.engine.AddFunds(ctx, r.ID, "9999999999999999999998"); err != nil {
		t.Fatal(err)
	}
	_, err = f.engine.AddFunds(ctx, r.ID, "2")
	wantCode(t, err, rounds.CodeInvalidAmount)

	got := mustRound(t, f, r.ID)
	if !got.CurrentRaised.Equal(dec("9999999999999999999998")) {
		t.Fatalf("expected raised to stay 9999999999999999999998, got %s", got.CurrentRaised)
	}
	if _, err := f.engine.Create(ctx, f.startup, input(day(2025, 4, 1), day(2025, 5, 1), "0.000000001")); !errors.Is(err, rounds.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for goal below column scale, got %v", err)
	}
}

func TestParseGoalRejectsZero(t *testing.T) {
	if _, err := rounds.ParseGoal("0"); !errors.Is(err, rounds.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if g, err := rounds.ParseGoal("1000"); err != nil || !g.Equal(dec("1000")) {
		t.Fatalf("ParseGoal(1000) = %s, %v", g, err)
	}
}

func TestAddFundsIsExact(t *testing.T) {
	f := newFixture(t, day(2025, 1, 10))
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "1000"))

	ctx := context.Background()
	if _, err := f.engine.AddFunds(ctx, r.ID, "300.50"); err != nil {
		t.Fatal(err)
	}
	got, err := f.engine.AddFunds(ctx, r.ID, "200.25")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentRaised.String() != "500.75" {
		t.Fatalf("expected 500.75, got %s", got.CurrentRaised)
	}
	if stored := mustRound(t, f, r.ID); !stored.CurrentRaised.Equal(dec("500.75")) {
		t.Fatalf("expected stored 500.75, got %s", stored.CurrentRaised)
	}
}

func TestAddFundsInvalidAmountLeavesRoundUntouched(t *testing.T) {
	f := newFixture(t, day(2025, 1, 10))
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "1000"))

	_, err := f.engine.AddFunds(context.Background(), r.ID, "-10")
	wantCode(t, err, rounds.CodeInvalidAmount)
	if stored := mustRound(t, f, r.ID); !stored.CurrentRaised.IsZero() {
		t.Fatalf("expected raised to stay 0, got %s", stored.CurrentRaised)
	}
}

func TestAddFundsUnknownRound(t *testing.T) {
	f := newFixture(t, day(2025, 1, 10))
	_, err := f.engine.AddFunds(context.Background(), 999, "1")
	wantCode(t, err, rounds.CodeRoundNotFound)
}

func TestAddFundsReachingGoalEndsRound(t *testing.T) {
	f := newFixture(t, day(2025, 1, 10))
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "1000"))
	if !r.IsCurrent {
		t.Fatal("expected new round to be current")
	}

	got, err := f.engine.AddFunds(context.Background(), r.ID, "1000")
	if err != nil {
		t.Fatal(err)
	}
	if got.IsCurrent {
		t.Fatal("expected funded round to stop being current")
	}
	if got.Phase(f.clock.Now()) != models.PhaseEnded {
		t.Fatalf("expected ENDED, got %s", got.Phase(f.clock.Now()))
	}
	if n := len(f.events.ofType(notifications.TypeFundingRoundEnded)); n != 1 {
		t.Fatalf("expected one ended notification, got %d", n)
	}

	// More money on an ended round does not reopen it or re-notify.
	if _, err := f.engine.AddFunds(context.Background(), r.ID, "5"); err != nil {
		t.Fatal(err)
	}
	if n := len(f.events.ofType(notifications.TypeFundingRoundEnded)); n != 1 {
		t.Fatalf("expected still one ended notification, got %d", n)
	}
}

func TestInvestRecordsInvestmentAndNotifiesStartup(t *testing.T) {
	f := newFixture(t, day(2025, 1, 10))
	investor := f.store.AddInvestor(models.Investor{Name: "Ann", Email: "ann@fund.test"})
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "1000"))

	inv, err := f.engine.Invest(context.Background(), r.ID, investor, "250.10")
	if err != nil {
		t.Fatal(err)
	}
	if inv.ID == 0 || inv.InvestorID != investor || !inv.Amount.Equal(dec("250.10")) {
		t.Fatalf("unexpected investment %+v", inv)
	}

	stored := mustRound(t, f, r.ID)
	if !stored.CurrentRaised.Equal(dec("250.10")) {
		t.Fatalf("expected raised 250.10, got %s", stored.CurrentRaised)
	}
	if len(stored.Investments) != 1 || stored.Investments[0].Investor == nil {
		t.Fatalf("expected one investment with investor, got %+v", stored.Investments)
	}

	evs := f.events.ofType(notifications.TypeInvestment)
	if len(evs) != 1 {
		t.Fatalf("expected one investment notification, got %d", len(evs))
	}
	if evs[0].UserID != f.startup || evs[0].UserType != notifications.UserStartup {
		t.Fatalf("investment notification sent to %s-%d", evs[0].UserType, evs[0].UserID)
	}
}

func TestInvestRejectsRoundNotOpen(t *testing.T) {
	f := newFixture(t, day(2024, 12, 1))
	investor := f.store.AddInvestor(models.Investor{Name: "Ann"})
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "1000"))

	_, err := f.engine.Invest(context.Background(), r.ID, investor, "10")
	wantCode(t, err, rounds.CodeRoundNotOpen)
	if stored := mustRound(t, f, r.ID); stored.HasInvestments() || !stored.CurrentRaised.IsZero() {
		t.Fatal("expected rejected investment to leave no trace")
	}
	if n := len(f.events.ofType(notifications.TypeInvestment)); n != 0 {
		t.Fatalf("expected no investment notification, got %d", n)
	}
}

func TestInvestSeesRoundThatStartedSinceLastSweep(t *testing.T) {
	f := newFixture(t, day(2024, 12, 1))
	investor := f.store.AddInvestor(models.Investor{Name: "Ann"})
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "1000"))
	if r.IsCurrent {
		t.Fatal("round should not be current before it starts")
	}

	f.clock.Set(day(2025, 1, 2))
	if _, err := f.engine.Invest(context.Background(), r.ID, investor, "10"); err != nil {
		t.Fatalf("expected investment into started round, got %v", err)
	}
	if stored := mustRound(t, f, r.ID); !stored.IsCurrent {
		t.Fatal("expected round to be current after investment")
	}
}

func TestInvestRejectsZeroAndExitedStartup(t *testing.T) {
	f := newFixture(t, day(2025, 1, 10))
	investor := f.store.AddInvestor(models.Investor{Name: "Ann"})
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "1000"))

	_, err := f.engine.Invest(context.Background(), r.ID, investor, "0")
	wantCode(t, err, rounds.CodeInvalidAmount)

	f.store.SetStartupStage(f.startup, models.StartupExited)
	_, err = f.engine.Invest(context.Background(), r.ID, investor, "10")
	wantCode(t, err, rounds.CodeExitedStartup)
}

func TestRaisedNeverDecreases(t *testing.T) {
	f := newFixture(t, day(2025, 1, 10))
	r := mustCreate(t, f, input(day(2025, 1, 1), day(2025, 3, 1), "1000000"))

	prev := dec("0")
	for _, a := range []string{"1", "0", "0.5", "99.99", "0"} {
		got, err := f.engine.AddFunds(context.Background(), r.ID, a)
		if err != nil {
			t.Fatal(err)
		}
		if got.CurrentRaised.LessThan(prev) {
			t.Fatalf("raised went from %s to %s", prev, got.CurrentRaised)
		}
		prev = got.CurrentRaised
		f.clock.Set(f.clock.Now().Add(time.Hour))
	}
	if !prev.Equal(dec("101.49")) {
		t.Fatalf("expected 101.49, got %s", prev)
	}
}
