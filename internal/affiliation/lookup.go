package affiliation

import (
	"context"

	"clinica/internal/subject"
)

// CompanyLookup adapts the company store to the subject resolver. The
// resolver only reports Active; callers that require an active company
// check it themselves.
func CompanyLookup(store Store) subject.LookupFunc {
	return func(ctx context.Context, id string) (subject.Resolved, error) {
		c, err := store.FindCompanyByID(ctx, id)
		if err != nil {
			return subject.Resolved{}, err
		}
		return subject.Resolved{ID: c.ID, Name: c.Name, Active: c.Status == StatusActive}, nil
	}
}
