package revision

import "context"

type Store interface {
	// Latest returns the newest revision of accountID.
	Latest(ctx context.Context, accountID string) (*Revision, error)

	// Append stores rev. It fails with a conflict error when revision
	// rev.Number already exists for the account.
	Append(ctx context.Context, rev *Revision) error

	// List returns revisions newest first.
	List(ctx context.Context, accountID string, opts ListOpts) ([]*Revision, error)

	// Accounts returns every account with at least one revision.
	Accounts(ctx context.Context) ([]string, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
