// Package subject resolves the foreign-key references a payload carries.
//
// References are keyed by a closed set of kinds instead of loose table-name
// strings; each kind owns a typed lookup registered at startup, so a typo in
// a reference kind is a build error or an immediate configuration failure,
// never a silent miss.
package subject

import (
	"context"
	"errors"
	"fmt"

	"clinica/internal/principal"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/sentinel"
)

// Kind enumerates everything a payload may reference.
type Kind string

const (
	KindPatient Kind = "patient"
	KindDoctor  Kind = "doctor"
	KindCompany Kind = "company"
)

// Resolved is the common shape of a successfully resolved reference.
type Resolved struct {
	ID     string
	Name   string
	Active bool
}

// LookupFunc resolves one kind. It must run against the caller's transaction
// view (ctx carries the open transaction) and return sentinel.ErrNotFound for
// a miss and a coded role-mismatch error when the id resolves to the wrong
// kind of entity.
type LookupFunc func(ctx context.Context, id string) (Resolved, error)

// Resolver holds the capability map built at startup.
type Resolver struct {
	lookups map[Kind]LookupFunc
}

func NewResolver() *Resolver {
	return &Resolver{lookups: make(map[Kind]LookupFunc)}
}

// Register installs the lookup for a kind. Last registration wins.
func (r *Resolver) Register(kind Kind, fn LookupFunc) {
	r.lookups[kind] = fn
}

// Resolve looks a reference up inside the caller's transaction. A missing
// lookup is a wiring bug and fails fast rather than writing dangling keys.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, id string) (Resolved, error) {
	fn, ok := r.lookups[kind]
	if !ok {
		return Resolved{}, dErrors.Newf(dErrors.CodeInternal,
			"no lookup registered for subject kind %q", kind)
	}
	res, err := fn(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Resolved{}, dErrors.Newf(dErrors.CodeNotFound, "%s %q not found", kind, id)
		}
		return Resolved{}, err
	}
	return res, nil
}

// PrincipalLookup builds a LookupFunc over the principal store that requires
// the given role. The resolved principal may be inactive; actions that also
// require ACTIVE check Resolved.Active themselves.
func PrincipalLookup(store principal.Store, role principal.Role) LookupFunc {
	return func(ctx context.Context, id string) (Resolved, error) {
		p, err := store.FindByID(ctx, id)
		if err != nil {
			return Resolved{}, err
		}
		if p.Role != role {
			return Resolved{}, dErrors.Newf(dErrors.CodeRoleMismatch,
				"%s is not a %s", p.DisplayName, roleLabel(role))
		}
		return Resolved{ID: p.ID, Name: p.DisplayName, Active: p.IsActive()}, nil
	}
}

func roleLabel(role principal.Role) string {
	switch role {
	case principal.RolePatient:
		return "patient"
	case principal.RoleDoctor:
		return "doctor"
	case principal.RoleAdmin:
		return "admin"
	case principal.RoleSecretary:
		return "secretary"
	case principal.RolePromoter:
		return "promoter"
	}
	return fmt.Sprintf("%v", role)
}
