// Package actor defines the authenticated principal attempting a mutation
// and the checks every domain action applies to it.
package actor

import (
	"context"
	"strings"
	"time"

	"clinica/internal/principal"
	dErrors "clinica/pkg/domain-errors"
)

// Context carries the authenticated principal through a domain action. It is
// never persisted as-is; only the ID lands on produced records, and only
// after Verify confirmed the stored principal is ACTIVE inside the same
// transaction as the write it attributes.
type Context struct {
	ID          string
	DisplayName string
	Email       string
	Role        principal.Role
	// LogicalTime is the instant every derived timestamp in the action uses.
	// Date-range validation deliberately ignores it and uses the wall clock,
	// so a caller-supplied clock cannot bypass must-be-future checks.
	LogicalTime time.Time
	Timezone    string
}

// Validate is the phase-1 structural check: runs before any transaction is
// opened and touches no storage.
func (a *Context) Validate() error {
	if a == nil {
		return dErrors.New(dErrors.CodeValidation, "acting user is required")
	}
	if strings.TrimSpace(a.ID) == "" {
		return dErrors.New(dErrors.CodeValidation, "acting user id is required")
	}
	if strings.TrimSpace(a.DisplayName) == "" {
		return dErrors.New(dErrors.CodeValidation, "acting user name is required")
	}
	if strings.TrimSpace(a.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "acting user email is required")
	}
	return nil
}

// Now returns the logical time for derived timestamps, defaulting to the
// wall clock when none was injected.
func (a *Context) Now() time.Time {
	if a == nil || a.LogicalTime.IsZero() {
		return time.Now()
	}
	return a.LogicalTime
}

// Lookup is the narrow read the verifier needs; satisfied by principal.Store.
type Lookup interface {
	FindByID(ctx context.Context, id string) (*principal.Principal, error)
}

// Verify re-reads the actor from storage and confirms it is ACTIVE. Called
// inside the action's transaction so the check and the attributed write see
// the same snapshot. An actor that exists but is suspended or inactive is
// rejected with a message naming the actor and their current status.
func Verify(ctx context.Context, store Lookup, a *Context) (*principal.Principal, error) {
	p, err := store.FindByID(ctx, a.ID)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "acting user %q not found", a.ID)
	}
	if !p.IsActive() {
		return nil, dErrors.Newf(dErrors.CodeInactiveActor,
			"acting user %s is not active (status: %s)", p.DisplayName, p.Status)
	}
	return p, nil
}
