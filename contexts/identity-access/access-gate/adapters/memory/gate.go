package memory

import (
	"context"
	"strings"
)

// StaticGate recognizes exactly one administrator account, fixed at boot from
// configuration.
type StaticGate struct {
	AdminAccountID string
}

func NewStaticGate(adminAccountID string) StaticGate {
	return StaticGate{AdminAccountID: strings.TrimSpace(adminAccountID)}
}

func (g StaticGate) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	if g.AdminAccountID == "" {
		return false, nil
	}
	return strings.TrimSpace(accountID) == g.AdminAccountID, nil
}
