package round

import (
	"context"

	"github.com/xraph/captable/id"
)

type Store interface {
	Create(ctx context.Context, r *Round) error
	Get(ctx context.Context, roundID id.RoundID) (*Round, error)
	List(ctx context.Context, accountID string, opts ListOpts) ([]*Round, error)
	Update(ctx context.Context, r *Round) error
	Delete(ctx context.Context, roundID id.RoundID) error
}

type ListOpts struct {
	Stage  Stage
	Limit  int
	Offset int
}
