package parser

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

// ParseOrders parses property:(asc|desc|iasc|idesc) tokens. A bare property name sorts ascending.
func ParseOrders(sch *schema.Schema, tokens []string) ([]query.Order, error) {
	var (
		result []query.Order
		errs   error
	)
	for _, token := range tokens {
		o, err := ParseOrder(sch, token)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		result = append(result, o)
	}
	if errs != nil {
		return nil, errs
	}
	return result, nil
}

func ParseOrder(sch *schema.Schema, token string) (query.Order, error) {
	token = strings.TrimSpace(token)
	name, direction, found := strings.Cut(token, delimiter)
	if !found || direction == "" {
		return query.Order{}, query.NewParseError(token, "missing direction, expected asc, desc, iasc or idesc", nil)
	}
	prop, ok := sch.Property(name)
	if !ok {
		return query.Order{}, query.NewParseError(token, "unknown property", nil)
	}
	if !prop.IsSimple() {
		return query.Order{}, query.NewParseError(token, "cannot order by "+prop.Type.String()+" property", nil)
	}
	switch strings.ToLower(direction) {
	case "asc":
		return query.Asc(prop), nil
	case "desc":
		return query.Desc(prop), nil
	case "iasc":
		return query.IAsc(prop), nil
	case "idesc":
		return query.IDesc(prop), nil
	}
	return query.Order{}, query.NewParseError(token, "unknown direction "+direction, nil)
}
