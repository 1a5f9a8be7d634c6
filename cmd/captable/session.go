package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/captable"
	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/store/memory"
)

// session is one command's view of the cap-table file: the file is loaded
// into a memory store as revision 1 and every change commits on top.
type session struct {
	path    string
	account string
	engine  *captable.Engine
}

func openSession(ctx context.Context, path, account string, logger *slog.Logger) (*session, error) {
	tf, err := readTableFile(path)
	if err != nil {
		return nil, err
	}
	if tf.Account != "" {
		account = tf.Account
	}

	s := memory.New()
	if !tf.empty() {
		rev, err := tf.toRevision(account, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if err := s.AppendRevision(ctx, rev); err != nil {
			return nil, err
		}
	}

	return &session{
		path:    path,
		account: account,
		engine:  captable.New(s, captable.WithLogger(logger)),
	}, nil
}

// save writes the latest revision back to the file.
func (s *session) save(ctx context.Context) error {
	rev, err := s.engine.Revision(ctx, s.account)
	if errors.Is(err, captable.ErrRevisionNotFound) {
		return writeTableFile(s.path, &tableFile{Account: s.account})
	}
	if err != nil {
		return err
	}
	return writeTableFile(s.path, fromRevision(rev))
}

// holder finds a member or investor by id or, failing that, by name.
func (s *session) holder(ctx context.Context, ref string) (id.ID, error) {
	rev, err := s.engine.Revision(ctx, s.account)
	if errors.Is(err, captable.ErrRevisionNotFound) {
		return id.Nil, fmt.Errorf("%w: %s", captable.ErrNotFound, ref)
	}
	if err != nil {
		return id.Nil, err
	}

	if parsed, err := id.ParseHolder(ref); err == nil {
		return parsed, nil
	}

	var found []id.ID
	for _, entry := range rev.Entries() {
		p, ok := entry.Ref.(equity.Persisted)
		if ok && strings.EqualFold(entry.Name, ref) {
			found = append(found, p.ID)
		}
	}
	switch len(found) {
	case 0:
		return id.Nil, fmt.Errorf("%w: %s", captable.ErrNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return id.Nil, fmt.Errorf("%d holders are named %q; use an id", len(found), ref)
	}
}
