package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/captable/id"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/types"
)

// tableFile is the on-disk cap table. Stakes are decimal strings so the
// file round-trips without float noise. Allocated is the share of the
// company the stakes are meant to cover; it is written only when part of
// the table is unallocated and defaults to 100.
type tableFile struct {
	Account   string        `yaml:"account,omitempty"`
	Allocated string        `yaml:"allocated,omitempty"`
	Members   []memberDTO   `yaml:"members,omitempty"`
	Investors []investorDTO `yaml:"investors,omitempty"`
}

type memberDTO struct {
	ID     string `yaml:"id,omitempty"`
	Name   string `yaml:"name"`
	Title  string `yaml:"title,omitempty"`
	Email  string `yaml:"email,omitempty"`
	Role   string `yaml:"role,omitempty"`
	Equity string `yaml:"equity"`
}

type investorDTO struct {
	ID       string `yaml:"id,omitempty"`
	Name     string `yaml:"name"`
	Firm     string `yaml:"firm,omitempty"`
	Invested string `yaml:"invested,omitempty"`
	Currency string `yaml:"currency,omitempty"`
	Equity   string `yaml:"equity"`
}

// readTableFile loads path. A file that does not exist yet is an empty
// cap table.
func readTableFile(path string) (*tableFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &tableFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &tf, nil
}

func writeTableFile(path string, tf *tableFile) error {
	data, err := yaml.Marshal(tf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// empty reports whether the file holds no stakes.
func (tf *tableFile) empty() bool {
	return len(tf.Members) == 0 && len(tf.Investors) == 0
}

// toRevision turns the file into revision 1 of accountID. Holders without
// an id get one; stakes are taken as written, even when they do not add
// up to the allocated total.
func (tf *tableFile) toRevision(accountID string, now time.Time) (*revision.Revision, error) {
	rev := &revision.Revision{
		ID:        id.NewRevisionID(),
		AccountID: accountID,
		Number:    1,
		Action:    revision.ActionImported,
		Total:     types.FullEquity,
		CreatedAt: now,
	}
	if tf.Allocated != "" {
		p, err := types.ParsePercent(tf.Allocated)
		if err != nil {
			return nil, fmt.Errorf("allocated: %w", err)
		}
		if p <= 0 || p > types.FullEquity {
			return nil, fmt.Errorf("allocated: %s outside 0.01..100.00", p)
		}
		rev.Total = p
	}

	for i, dto := range tf.Members {
		m, err := dto.toMember(now)
		if err != nil {
			return nil, fmt.Errorf("members[%d]: %w", i, err)
		}
		rev.Members = append(rev.Members, m)
	}
	for i, dto := range tf.Investors {
		inv, err := dto.toInvestor(now)
		if err != nil {
			return nil, fmt.Errorf("investors[%d]: %w", i, err)
		}
		rev.Investors = append(rev.Investors, inv)
	}
	return rev, nil
}

func (dto memberDTO) toMember(now time.Time) (*member.Member, error) {
	memberID := id.NewMemberID()
	if dto.ID != "" {
		var err error
		if memberID, err = id.ParseMemberID(dto.ID); err != nil {
			return nil, err
		}
	}

	role := member.Role(dto.Role)
	if role == "" {
		role = member.RoleTeam
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", dto.Role)
	}

	p, err := types.ParsePercent(dto.Equity)
	if err != nil {
		return nil, err
	}

	return &member.Member{
		Entity:   types.Entity{CreatedAt: now, UpdatedAt: now},
		ID:       memberID,
		Name:     dto.Name,
		Title:    dto.Title,
		Email:    dto.Email,
		Role:     role,
		Equity:   p,
		JoinedAt: now,
	}, nil
}

func (dto investorDTO) toInvestor(now time.Time) (*investor.Investor, error) {
	investorID := id.NewInvestorID()
	if dto.ID != "" {
		var err error
		if investorID, err = id.ParseInvestorID(dto.ID); err != nil {
			return nil, err
		}
	}

	p, err := types.ParsePercent(dto.Equity)
	if err != nil {
		return nil, err
	}

	inv := &investor.Investor{
		Entity: types.Entity{CreatedAt: now, UpdatedAt: now},
		ID:     investorID,
		Name:   dto.Name,
		Firm:   dto.Firm,
		Equity: p,
	}
	if dto.Invested != "" {
		currency := dto.Currency
		if currency == "" {
			currency = "usd"
		}
		if inv.Invested, err = types.ParseMoney(dto.Invested, currency); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// fromRevision renders rev back into the file format.
func fromRevision(rev *revision.Revision) *tableFile {
	tf := &tableFile{Account: rev.AccountID}
	if len(rev.Members)+len(rev.Investors) > 0 && rev.Total != types.FullEquity {
		tf.Allocated = rev.Total.String()
	}
	for _, m := range rev.Members {
		tf.Members = append(tf.Members, memberDTO{
			ID:     m.ID.String(),
			Name:   m.Name,
			Title:  m.Title,
			Email:  m.Email,
			Role:   string(m.Role),
			Equity: m.Equity.String(),
		})
	}
	for _, inv := range rev.Investors {
		dto := investorDTO{
			ID:     inv.ID.String(),
			Name:   inv.Name,
			Firm:   inv.Firm,
			Equity: inv.Equity.String(),
		}
		if inv.Invested.Currency != "" {
			dto.Invested = inv.Invested.FormatMajor()
			dto.Currency = inv.Invested.Currency
		}
		tf.Investors = append(tf.Investors, dto)
	}
	return tf
}
