package postgres

import (
	"encoding/json"
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

	ID        string            `grove:"id,pk"`
	AccountID string            `grove:"account_id"`
	Number    int64             `grove:"number"`
	Action    string            `grove:"action"`
	Members   json.RawMessage   `grove:"members,type:jsonb"`
	Investors json.RawMessage   `grove:"investors,type:jsonb"`
	Total     int64             `grove:"total_equity"`
	Metadata  map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt time.Time         `grove:"created_at"`
}

func toRevisionModel(r *revision.Revision) (*revisionModel, error) {
	members, err := json.Marshal(r.Members)
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}
	investors, err := json.Marshal(r.Investors)
	if err != nil {
		return nil, fmt.Errorf("encode investors: %w", err)
	}

	return &revisionModel{
		ID:        r.ID.String(),
		AccountID: r.AccountID,
		Number:    r.Number,
		Action:    string(r.Action),
		Members:   members,
		Investors: investors,
		Total:     int64(r.Total),
		Metadata:  r.Metadata,
		CreatedAt: r.CreatedAt,
	}, nil
}

func fromRevisionModel(m *revisionModel) (*revision.Revision, error) {
	revID, err := id.ParseRevisionID(m.ID)
	if err != nil {
		return nil, err
	}

	var members []*member.Member
	if len(m.Members) > 0 {
		if err := json.Unmarshal(m.Members, &members); err != nil {
			return nil, fmt.Errorf("decode members of %s: %w", m.ID, err)
		}
	}
	var investors []*investor.Investor
	if len(m.Investors) > 0 {
		if err := json.Unmarshal(m.Investors, &investors); err != nil {
			return nil, fmt.Errorf("decode investors of %s: %w", m.ID, err)
		}
	}

	return &revision.Revision{
		ID:        revID,
		AccountID: m.AccountID,
		Number:    m.Number,
		Action:    revision.Action(m.Action),
		Members:   members,
		Investors: investors,
		Total:     types.Percent(m.Total),
		CreatedAt: m.CreatedAt,
		Metadata:  m.Metadata,
	}, nil
}

// ==================== Round models ====================

type roundModel struct {
	grove.BaseModel `grove:"table:captable_rounds"`

	ID        string            `grove:"id,pk"`
	AccountID string            `grove:"account_id"`
	Name      string            `grove:"name"`
	Stage     string            `grove:"stage"`
	Raised    int64             `grove:"raised_amount"`
	PreMoney  int64             `grove:"pre_money_amount"`
	Currency  string            `grove:"currency"`
	ClosedAt  *time.Time        `grove:"closed_at"`
	Metadata  map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt time.Time         `grove:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at"`
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
