package query

import (
	"fmt"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

type Order struct {
	Property   schema.Property
	Direction  Direction
	IgnoreCase bool
}

func Asc(p schema.Property) Order {
	return Order{Property: p, Direction: Ascending}
}

func Desc(p schema.Property) Order {
	return Order{Property: p, Direction: Descending}
}

func IAsc(p schema.Property) Order {
	return Order{Property: p, Direction: Ascending, IgnoreCase: true}
}

func IDesc(p schema.Property) Order {
	return Order{Property: p, Direction: Descending, IgnoreCase: true}
}

func (o Order) IsPersisted() bool {
	return o.Property.Persisted && o.Property.Column != ""
}

func (o Order) String() string {
	prefix := ""
	if o.IgnoreCase {
		prefix = "i"
	}
	if o.Direction == Descending {
		return fmt.Sprintf("%s:%sdesc", o.Property.Name, prefix)
	}
	return fmt.Sprintf("%s:%sasc", o.Property.Name, prefix)
}

// Compare orders two entities by the order's property. Null sorts first ascending and last
// descending; ties return 0.
func (o Order) Compare(left, right any) (int, error) {
	c, err := compareValues(o.Property.Value(left), o.Property.Value(right), o.IgnoreCase)
	if err != nil {
		return 0, err
	}
	if o.Direction == Descending {
		return -c, nil
	}
	return c, nil
}

func compareValues(a, b any, ignoreCase bool) (int, error) {
	aNil, bNil := operators.IsNil(a), operators.IsNil(b)
	switch {
	case aNil && bNil:
		return 0, nil
	case aNil:
		return -1, nil
	case bNil:
		return 1, nil
	}
	if ignoreCase {
		if as, ok := a.(string); ok {
			if bs, ok := b.(string); ok {
				a, b = operators.Fold(as), operators.Fold(bs)
			}
		}
	}
	return operators.Compare(a, b)
}
