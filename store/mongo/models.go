package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/captable/id"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
	"github.com/xraph/captable/types"
)

// ==================== Revision models ====================

type revisionModel struct {
	grove.BaseModel `grove:"table:captable_revisions"`

	ID        string            `grove:"id,pk"        bson:"_id"`
	AccountID string            `grove:"account_id"   bson:"account_id"`
	Number    int64             `grove:"number"       bson:"number"`
	Action    string            `grove:"action"       bson:"action"`
	Members   []memberModel     `grove:"members"      bson:"members"`
	Investors []investorModel   `grove:"investors"    bson:"investors"`
	Total     int64             `grove:"total_equity" bson:"total_equity"`
	Metadata  map[string]string `grove:"metadata"     bson:"metadata,omitempty"`
	CreatedAt time.Time         `grove:"created_at"   bson:"created_at"`
}

type memberModel struct {
	ID        string            `bson:"id"`
	Name      string            `bson:"name"`
	Title     string            `bson:"title,omitempty"`
	Email     string            `bson:"email,omitempty"`
	Role      string            `bson:"role"`
	Equity    int64             `bson:"equity"`
	JoinedAt  time.Time         `bson:"joined_at"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

type investorModel struct {
	ID               string            `bson:"id"`
	Name             string            `bson:"name"`
	Firm             string            `bson:"firm,omitempty"`
	RoundID          string            `bson:"round_id,omitempty"`
	InvestedAmount   int64             `bson:"invested_amount"`
	InvestedCurrency string            `bson:"invested_currency"`
	Equity           int64             `bson:"equity"`
	Metadata         map[string]string `bson:"metadata,omitempty"`
	CreatedAt        time.Time         `bson:"created_at"`
	UpdatedAt        time.Time         `bson:"updated_at"`
}

func toRevisionModel(r *revision.Revision) *revisionModel {
	m := &revisionModel{
		ID:        r.ID.String(),
		AccountID: r.AccountID,
		Number:    r.Number,
		Action:    string(r.Action),
		Members:   make([]memberModel, len(r.Members)),
		Investors: make([]investorModel, len(r.Investors)),
		Total:     int64(r.Total),
		Metadata:  r.Metadata,
		CreatedAt: r.CreatedAt,
	}
	for i, mem := range r.Members {
		m.Members[i] = memberModel{
			ID:        mem.ID.String(),
			Name:      mem.Name,
			Title:     mem.Title,
			Email:     mem.Email,
			Role:      string(mem.Role),
			Equity:    int64(mem.Equity),
			JoinedAt:  mem.JoinedAt,
			Metadata:  mem.Metadata,
			CreatedAt: mem.CreatedAt,
			UpdatedAt: mem.UpdatedAt,
		}
	}
	for i, inv := range r.Investors {
		var roundID string
		if !inv.RoundID.IsNil() {
			roundID = inv.RoundID.String()
		}
		m.Investors[i] = investorModel{
			ID:               inv.ID.String(),
			Name:             inv.Name,
			Firm:             inv.Firm,
			RoundID:          roundID,
			InvestedAmount:   inv.Invested.Amount,
			InvestedCurrency: inv.Invested.Currency,
			Equity:           int64(inv.Equity),
			Metadata:         inv.Metadata,
			CreatedAt:        inv.CreatedAt,
			UpdatedAt:        inv.UpdatedAt,
		}
	}
	return m
}

func fromRevisionModel(m *revisionModel) (*revision.Revision, error) {
	revID, err := id.ParseRevisionID(m.ID)
	if err != nil {
		return nil, err
	}

	rev := &revision.Revision{
		ID:        revID,
		AccountID: m.AccountID,
		Number:    m.Number,
		Action:    revision.Action(m.Action),
		Members:   make([]*member.Member, 0, len(m.Members)),
		Investors: make([]*investor.Investor, 0, len(m.Investors)),
		Total:     types.Percent(m.Total),
		CreatedAt: m.CreatedAt,
		Metadata:  m.Metadata,
	}

	for _, mm := range m.Members {
		memberID, err := id.ParseMemberID(mm.ID)
		if err != nil {
			return nil, fmt.Errorf("revision %s: %w", m.ID, err)
		}
		rev.Members = append(rev.Members, &member.Member{
			Entity: types.Entity{
				CreatedAt: mm.CreatedAt,
				UpdatedAt: mm.UpdatedAt,
			},
			ID:       memberID,
			Name:     mm.Name,
			Title:    mm.Title,
			Email:    mm.Email,
			Role:     member.Role(mm.Role),
			Equity:   types.Percent(mm.Equity),
			JoinedAt: mm.JoinedAt,
			Metadata: mm.Metadata,
		})
	}

	for _, im := range m.Investors {
		investorID, err := id.ParseInvestorID(im.ID)
		if err != nil {
			return nil, fmt.Errorf("revision %s: %w", m.ID, err)
		}
		var roundID id.RoundID
		if im.RoundID != "" {
			if roundID, err = id.ParseRoundID(im.RoundID); err != nil {
				return nil, fmt.Errorf("revision %s: %w", m.ID, err)
			}
		}
		rev.Investors = append(rev.Investors, &investor.Investor{
			Entity: types.Entity{
				CreatedAt: im.CreatedAt,
				UpdatedAt: im.UpdatedAt,
			},
			ID:       investorID,
			Name:     im.Name,
			Firm:     im.Firm,
			RoundID:  roundID,
			Invested: types.Money{Amount: im.InvestedAmount, Currency: im.InvestedCurrency},
			Equity:   types.Percent(im.Equity),
			Metadata: im.Metadata,
		})
	}

	return rev, nil
}

// ==================== Round models ====================

type roundModel struct {
	grove.BaseModel `grove:"table:captable_rounds"`

	ID        string            `grove:"id,pk"            bson:"_id"`
	AccountID string            `grove:"account_id"       bson:"account_id"`
	Name      string            `grove:"name"             bson:"name"`
	Stage     string            `grove:"stage"            bson:"stage"`
	Raised    int64             `grove:"raised_amount"    bson:"raised_amount"`
	PreMoney  int64             `grove:"pre_money_amount" bson:"pre_money_amount"`
	Currency  string            `grove:"currency"         bson:"currency"`
	ClosedAt  *time.Time        `grove:"closed_at"        bson:"closed_at,omitempty"`
	Metadata  map[string]string `grove:"metadata"         bson:"metadata,omitempty"`
	CreatedAt time.Time         `grove:"created_at"       bson:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at"       bson:"updated_at"`
}

func toRoundModel(r *round.Round) *roundModel {
	return &roundModel{
		ID:        r.ID.String(),
		AccountID: r.AccountID,
		Name:      r.Name,
		Stage:     string(r.Stage),
		Raised:    r.Raised.Amount,
		PreMoney:  r.PreMoney.Amount,
		Currency:  r.Raised.Currency,
		ClosedAt:  r.ClosedAt,
		Metadata:  r.Metadata,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromRoundModel(m *roundModel) (*round.Round, error) {
	roundID, err := id.ParseRoundID(m.ID)
	if err != nil {
		return nil, err
	}

	return &round.Round{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        roundID,
		AccountID: m.AccountID,
		Name:      m.Name,
		Stage:     round.Stage(m.Stage),
		Raised:    types.Money{Amount: m.Raised, Currency: m.Currency},
		PreMoney:  types.Money{Amount: m.PreMoney, Currency: m.Currency},
		ClosedAt:  m.ClosedAt,
		Metadata:  m.Metadata,
	}, nil
}
