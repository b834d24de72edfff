package parser

import (
	"net/url"

	"github.com/pkg/errors"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
)

// Params are the list parameters a controller receives.
type Params struct {
	Filters      []string
	Orders       []string
	RootJunction query.JunctionType
	Pager        *query.Pager
}

// ParseFilterParams reads repeated filter and order parameters (each may itself be a
// comma-joined list), rootJunction, page and pageSize.
func ParseFilterParams(values url.Values) (Params, error) {
	var params Params
	for _, v := range values["filter"] {
		params.Filters = append(params.Filters, SplitFilters(v)...)
	}
	for _, v := range values["order"] {
		params.Orders = append(params.Orders, SplitOrders(v)...)
	}
	junction, err := query.ParseJunctionType(values.Get("rootJunction"))
	if err != nil {
		return Params{}, query.NewParseError(values.Get("rootJunction"), "unknown root junction", err)
	}
	params.RootJunction = junction

	if values.Has("page") || values.Has("pageSize") {
		pager := query.Pager{Page: 1, PageSize: 50}
		if values.Has("page") {
			if pager.Page, err = decimalInt(values.Get("page")); err != nil || pager.Page < 1 {
				return Params{}, query.NewParseError(values.Get("page"), "page must be a positive integer", errors.WithStack(err))
			}
		}
		if values.Has("pageSize") {
			if pager.PageSize, err = decimalInt(values.Get("pageSize")); err != nil || pager.PageSize < 0 {
				return Params{}, query.NewParseError(values.Get("pageSize"), "pageSize must not be negative", errors.WithStack(err))
			}
		}
		params.Pager = &pager
	}
	return params, nil
}
