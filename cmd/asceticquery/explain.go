package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/logger"
	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/parser"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/planner"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/infrastructure/sqlstore"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
	"github.com/krew-solutions/ascetic-query-go/examples/dataelement"
)

// QueryOptions are the list parameters shared by explain and run.
type QueryOptions struct {
	Entity       string
	Filters      []string
	Orders       []string
	RootJunction string
	Page         int
	PageSize     int
}

func (o *QueryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Entity, "entity", dataelement.SchemaName, "entity to query")
	cmd.Flags().StringArrayVar(&o.Filters, "filter", nil, "filter, e.g. name:ilike:alpha (repeatable, comma-joined lists allowed)")
	cmd.Flags().StringArrayVar(&o.Orders, "order", nil, "order, e.g. created:desc (repeatable)")
	cmd.Flags().StringVar(&o.RootJunction, "root-junction", "AND", "how filters combine (AND|OR)")
	cmd.Flags().IntVar(&o.Page, "page", 0, "1-based page, 0 disables paging")
	cmd.Flags().IntVar(&o.PageSize, "page-size", 50, "page size")
}

// values renders the options as controller parameters.
func (o *QueryOptions) values() url.Values {
	v := url.Values{}
	for _, f := range o.Filters {
		v.Add("filter", f)
	}
	for _, order := range o.Orders {
		v.Add("order", order)
	}
	v.Set("rootJunction", o.RootJunction)
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
		v.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	return v
}

func (o *QueryOptions) parse(registry *schema.Registry) (query.Query, error) {
	params, err := parser.ParseFilterParams(o.values())
	if err != nil {
		return query.Query{}, err
	}
	return parser.New(registry).ParseParams(o.Entity, params)
}

type explanation struct {
	Plan   string `json:"plan"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}
	cmd := &cobra.Command{
		Use:          "explain",
		Short:        "Show how a query is split between the database and memory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, err := sqlstore.DialectByName(rootOpts.Config.Driver)
			if err != nil {
				return err
			}
			registry, err := dataelement.NewRegistry(dialect)
			if err != nil {
				return err
			}
			q, err := opts.parse(registry)
			if err != nil {
				return err
			}
			engine := sqlstore.NewEngine(dialect, sqlstore.WithLogger(logger.Get()))
			plan, err := planner.New(engine.Supports).Plan(q)
			if err != nil {
				return err
			}
			stmt, err := engine.Explain(context.Background(), plan.Store)
			if err != nil {
				return err
			}
			out := explanation{Plan: plan.String(), SQL: stmt.SQL, Params: stmt.Params}
			if rootOpts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}
			fmt.Fprint(cmd.OutOrStdout(), out.Plan)
			fmt.Fprintf(cmd.OutOrStdout(), "sql:    %s\nparams: %v\n", out.SQL, out.Params)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}
