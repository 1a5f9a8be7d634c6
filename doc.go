// Package captable maintains company capitalization tables: who owns what
// share of the company, kept at exactly 100.00% as holders come and go.
//
// Captable is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Proportional dilution when a founder, team member or investor joins
//   - Proportional redistribution when a holder leaves
//   - Exact two-decimal arithmetic with a deterministic rounding residual
//   - Append-only revisions with optimistic concurrency
//   - Funding rounds that price investor stakes from their terms
//   - Audit trail and Prometheus metrics through plugins
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/captable"
//	    "github.com/xraph/captable/store/postgres"
//	)
//
//	// Initialize store
//	store := postgres.New(db)
//
//	// Create the engine
//	e := captable.New(store)
//
//	// Start it (runs migrations and background workers)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// Every change to a cap table goes through the Engine. Adding a holder
// with p% scales every existing stake by (100 - p) / 100:
//
//	founder, err := e.AddMember(ctx, accountID, &member.Member{
//	    Name:   "Ada",
//	    Role:   member.RoleFounder,
//	    Equity: captable.Points(100),
//	})
//
//	angel, err := e.AddInvestor(ctx, accountID, &investor.Investor{
//	    Name:   "Angel",
//	    Equity: captable.MustPercent("20"),
//	})
//	// founder now holds 80.00, angel 20.00
//
// Removing a holder hands their stake back to everyone else in proportion
// to what they hold:
//
//	_, err = e.RemoveInvestor(ctx, accountID, angel.ID)
//	// founder is back at 100.00
//
// Rounding is to hundredths of a percentage point. Whatever rounding
// leaves over goes to the largest holder, so the total is always exactly
// 100.00, or the allocated total of a table that holds part of the company
// back.
//
// # Concurrency
//
// Each commit appends revision N+1 of the account. Two writers that both
// loaded revision N cannot both append N+1; the loser reloads and runs
// again. Within a process the engine also serializes writers per account;
// pass lock.NewRedis to WithLocker to do the same across processes.
//
// # TypeID
//
// All records use TypeID for globally unique, type-safe identifiers:
//
//	mbr_01h2xcejqtf2nbrexx3vqjhp41   // Member ID
//	inv_01h455vb4pex5vsknk084sn02q   // Investor ID
//	rnd_01h455vb4pex5vsknk084sn02q   // Round ID
//	rev_01h455vb4pex5vsknk084sn02q   // Revision ID
package captable
