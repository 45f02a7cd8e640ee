package ports

import "context"

// Gate answers whether an account holds the administrator privilege. The
// marketplace runs with a single designated administrator.
type Gate interface {
	IsAdmin(ctx context.Context, accountID string) (bool, error)
}
