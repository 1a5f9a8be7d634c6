package plugin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/plugin"
	"github.com/xraph/captable/types"
)

type addedCounter struct {
	name  string
	calls atomic.Int32
	err   error
}

func (a *addedCounter) Name() string { return a.name }

func (a *addedCounter) OnHolderAdded(context.Context, string, equity.Entry) error {
	a.calls.Add(1)
	return a.err
}

type slowValidator struct{}

func (slowValidator) Name() string { return "slow" }

func (slowValidator) ValidateEntry(ctx context.Context, _ string, _ equity.Entry) error {
	select {
	case <-time.After(time.Second):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type capValidator struct{ max types.Percent }

func (capValidator) Name() string { return "cap" }

func (c capValidator) ValidateEntry(_ context.Context, _ string, e equity.Entry) error {
	if e.Equity > c.max {
		return errors.New("stake above cap")
	}
	return nil
}

func newRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func entry(pct string) equity.Entry {
	return equity.Entry{
		Ref:      equity.NewPending(),
		Category: equity.Team,
		Name:     "Bo",
		Equity:   types.MustPercent(pct),
	}
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.Register(&addedCounter{name: "a"}))
	require.Error(t, r.Register(&addedCounter{name: "a"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("b"))
}

func TestEmitSwallowsHookErrors(t *testing.T) {
	r := newRegistry()
	failing := &addedCounter{name: "failing", err: errors.New("boom")}
	ok := &addedCounter{name: "ok"}
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(ok))

	r.EmitHolderAdded(context.Background(), "acct_1", entry("10"))

	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(1), ok.calls.Load())
	assert.Len(t, r.List(), 2)
}

func TestValidateEntryReturnsRejection(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.Register(capValidator{max: types.Points(25)}))

	require.NoError(t, r.ValidateEntry(context.Background(), "acct_1", entry("25")))

	err := r.ValidateEntry(context.Background(), "acct_1", entry("25.01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin cap")
}

func TestValidateEntryTimesOut(t *testing.T) {
	r := newRegistry().WithTimeout(10 * time.Millisecond)
	require.NoError(t, r.Register(slowValidator{}))

	err := r.ValidateEntry(context.Background(), "acct_1", entry("5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
