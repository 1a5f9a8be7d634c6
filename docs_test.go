package captable_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/captable"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/round"
	"github.com/xraph/captable/store/memory"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation behave as documented.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		e := captable.New(store,
			captable.WithLogger(slog.Default()),
		)

		ctx := context.Background()
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		accountID := "acct_quickstart"

		founder, err := e.AddMember(ctx, accountID, &member.Member{
			Name:   "Ada",
			Role:   member.RoleFounder,
			Equity: captable.Points(100),
		})
		if err != nil {
			t.Fatal(err)
		}

		angel, err := e.AddInvestor(ctx, accountID, &investor.Investor{
			Name:   "Angel",
			Equity: captable.MustPercent("20"),
		})
		if err != nil {
			t.Fatal(err)
		}

		snap, err := e.Snapshot(ctx, accountID)
		if err != nil {
			t.Fatal(err)
		}
		if snap.Total != captable.FullEquity {
			t.Errorf("expected total 100.00, got %s", snap.Total)
		}
		for _, entry := range snap.Entries {
			switch entry.Name {
			case founder.Name:
				if entry.Equity.String() != "80.00" {
					t.Errorf("expected founder at 80.00, got %s", entry.Equity)
				}
			case angel.Name:
				if entry.Equity.String() != "20.00" {
					t.Errorf("expected angel at 20.00, got %s", entry.Equity)
				}
			}
		}

		if _, err := e.RemoveInvestor(ctx, accountID, angel.ID); err != nil {
			t.Fatal(err)
		}
		total, err := e.TotalByCategory(ctx, accountID, captable.Founder)
		if err != nil {
			t.Fatal(err)
		}
		if total != captable.FullEquity {
			t.Errorf("expected founders back at 100.00, got %s", total)
		}
	})

	t.Run("RoundExample", func(t *testing.T) {
		e := captable.New(memory.New())
		ctx := context.Background()
		accountID := "acct_round"

		if _, err := e.AddMember(ctx, accountID, &member.Member{
			Name:   "Ada",
			Role:   member.RoleFounder,
			Equity: captable.FullEquity,
		}); err != nil {
			t.Fatal(err)
		}

		seed := &round.Round{
			AccountID: accountID,
			Name:      "Seed",
			Stage:     round.StageSeed,
			Raised:    captable.USD(2_000_000_00),
			PreMoney:  captable.USD(8_000_000_00),
		}
		if err := e.CreateRound(ctx, seed); err != nil {
			t.Fatal(err)
		}
		if got := seed.PostMoney().String(); got != "$10000000.00" {
			t.Errorf("expected post-money $10000000.00, got %s", got)
		}

		lead, err := e.AddInvestor(ctx, accountID, &investor.Investor{
			Name:    "Lead",
			RoundID: seed.ID,
		})
		if err != nil {
			t.Fatal(err)
		}
		if lead.Equity.String() != "20.00" {
			t.Errorf("expected the whole round to price at 20.00, got %s", lead.Equity)
		}
	})

	t.Run("PercentExamples", func(t *testing.T) {
		p, err := captable.ParsePercent("33.335")
		if err != nil {
			t.Fatal(err)
		}
		if p.String() != "33.34" {
			t.Errorf("expected 33.34, got %s", p)
		}
		if captable.MustPercent("12.5").Complement().String() != "87.50" {
			t.Error("expected complement 87.50")
		}
	})
}
