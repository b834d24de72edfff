package parser

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

const delimiter = ":"

// Parser turns filter and order tokens into a Query for a registered entity.
type Parser struct {
	registry *schema.Registry
}

func New(registry *schema.Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse builds an unpaginated, unordered query. Filters are combined with rootJunction.
func (p *Parser) Parse(entity string, filters []string, rootJunction query.JunctionType) (query.Query, error) {
	return p.ParseWithOrders(entity, filters, nil, rootJunction)
}

func (p *Parser) ParseWithOrders(
	entity string, filters, orders []string, rootJunction query.JunctionType,
) (query.Query, error) {
	b, err := p.builder(entity, filters, orders, rootJunction)
	if err != nil {
		return query.Query{}, err
	}
	return b.Build()
}

// ParseParams builds a query from controller parameters, including pagination.
func (p *Parser) ParseParams(entity string, params Params) (query.Query, error) {
	b, err := p.builder(entity, params.Filters, params.Orders, params.RootJunction)
	if err != nil {
		return query.Query{}, err
	}
	if params.Pager != nil {
		b.SetPage(*params.Pager)
	}
	return b.Build()
}

func (p *Parser) builder(
	entity string, filters, orders []string, rootJunction query.JunctionType,
) (*query.Builder, error) {
	sch, ok := p.registry.Get(entity)
	if !ok {
		return nil, query.NewParseError(entity, "unknown entity", nil)
	}
	var result error
	b := query.From(sch).SetRootJunctionType(rootJunction)
	for _, token := range filters {
		c, err := ParseFilter(sch, token)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		b.Add(c)
	}
	parsedOrders, err := ParseOrders(sch, orders)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if result != nil {
		return nil, result
	}
	return b.AddOrder(parsedOrders...), nil
}

// ParseFilter parses path(:operator:value)+. Chained operators on one path are ANDed.
func ParseFilter(sch *schema.Schema, token string) (query.Criterion, error) {
	token = strings.TrimSpace(token)
	path, remainder, found := strings.Cut(token, delimiter)
	if !found {
		return nil, query.NewParseError(token, "missing operator", nil)
	}
	resolved, err := sch.ResolvePath(path)
	if err != nil {
		return nil, query.NewParseError(token, "unknown property path", err)
	}
	prop := schema.Terminal(resolved)

	operands, ok := scanOperands(remainder)
	if !ok {
		return nil, query.NewParseError(remainder, "unrecognized operator expression", nil)
	}
	restrictions := make([]query.Criterion, 0, len(operands))
	for _, o := range operands {
		op, err := buildOperator(prop, o)
		if err != nil {
			return nil, query.NewParseError(token, err.Error(), nil)
		}
		restrictions = append(restrictions, query.NewRestriction(path, op))
	}
	if len(restrictions) == 1 {
		return restrictions[0], nil
	}
	return query.And(restrictions...), nil
}

func buildOperator(prop schema.Property, o operand) (operators.Operator, error) {
	kw, ok := lookupKeyword(o.name)
	if !ok {
		return operators.Operator{}, fmt.Errorf("unknown operator %q", o.name)
	}
	var args []any
	switch kw.arity {
	case noValue:
		if o.value != "" {
			return operators.Operator{}, fmt.Errorf("operator %s takes no value", o.name)
		}
	case oneValue:
		if !o.hasValue {
			return operators.Operator{}, fmt.Errorf("operator %s requires a value", o.name)
		}
		if kw.isTextual() {
			args = []any{o.value}
			break
		}
		v, err := coerce(prop, o.value)
		if err != nil {
			return operators.Operator{}, fmt.Errorf("value %q is not a valid %s: %v", o.value, prop.Type, err)
		}
		args = []any{v}
	case valueList:
		items := splitList(o.value)
		if len(items) == 0 {
			return operators.Operator{}, fmt.Errorf("operator %s requires at least one value", o.name)
		}
		for _, item := range items {
			v, err := coerce(prop, item)
			if err != nil {
				return operators.Operator{}, fmt.Errorf("value %q is not a valid %s: %v", item, prop.Type, err)
			}
			args = append(args, v)
		}
	}
	op := kw.build(args)
	if !op.IsValid(prop.Type) {
		return operators.Operator{}, fmt.Errorf("operator %s is not valid for %s property %q", o.name, prop.Type, prop.Name)
	}
	return op, nil
}
