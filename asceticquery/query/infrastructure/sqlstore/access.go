package sqlstore

import (
	"context"
	"fmt"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

// AccessPolicy supplies the read-access predicate appended to every statement.
// An empty fragment means no restriction.
type AccessPolicy interface {
	ReadPredicate(ctx context.Context, sch *schema.Schema, alias string) (Fragment, error)
}

// AccessFunc adapts a function to AccessPolicy.
type AccessFunc func(ctx context.Context, sch *schema.Schema, alias string) (Fragment, error)

func (f AccessFunc) ReadPredicate(ctx context.Context, sch *schema.Schema, alias string) (Fragment, error) {
	return f(ctx, sch, alias)
}

type noAccessRestriction struct{}

// NoAccessRestriction lets every row through.
var NoAccessRestriction AccessPolicy = noAccessRestriction{}

func (noAccessRestriction) ReadPredicate(context.Context, *schema.Schema, string) (Fragment, error) {
	return Fragment{}, nil
}

type userKey struct{}

// WithUser attaches the id of the user whose read access is checked.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func UserFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok && userID != ""
}

// PublicOrOwnerAccess grants rows whose public access string starts with read permission
// ('r', as in "rw------") or that belong to the current user. Schemas without the public
// access column are not restricted.
type PublicOrOwnerAccess struct {
	PublicAccessColumn string
	OwnerColumn        string
	// Superusers bypass the check.
	Superusers map[string]bool
}

func (p PublicOrOwnerAccess) ReadPredicate(ctx context.Context, sch *schema.Schema, alias string) (Fragment, error) {
	if !hasColumn(sch, p.PublicAccessColumn) {
		return Fragment{}, nil
	}
	public := fmt.Sprintf("%s.%s LIKE 'r%%'", alias, p.PublicAccessColumn)
	userID, ok := UserFrom(ctx)
	if !ok {
		return Fragment{SQL: public}, nil
	}
	if p.Superusers[userID] {
		return Fragment{}, nil
	}
	if p.OwnerColumn == "" || !hasColumn(sch, p.OwnerColumn) {
		return Fragment{SQL: public}, nil
	}
	return Fragment{
		SQL:    fmt.Sprintf("(%s OR %s.%s = ?)", public, alias, p.OwnerColumn),
		Params: []any{userID},
	}, nil
}

func hasColumn(sch *schema.Schema, column string) bool {
	if column == "" {
		return false
	}
	for _, c := range sch.Columns() {
		if c == column {
			return true
		}
	}
	return false
}
