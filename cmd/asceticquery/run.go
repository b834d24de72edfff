package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/logger"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/infrastructure/sqlstore"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/service"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/session"
	pgxsession "github.com/krew-solutions/ascetic-query-go/asceticquery/session/pgx"
	sqlsession "github.com/krew-solutions/ascetic-query-go/asceticquery/session/sql"
	"github.com/krew-solutions/ascetic-query-go/examples/dataelement"
)

type RunOptions struct {
	QueryOptions
	Random int
	Count  bool
	User   string
}

type row struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      *string   `json:"code,omitempty"`
	Created   time.Time `json:"created"`
	ValueType string    `json:"valueType"`
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a query against the configured database",
		Long: `Run a query against PostgreSQL (driver=postgres) or an in-memory SQLite
database (driver=sqlite) seeded with the demo data elements.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if opts.User != "" {
				ctx = sqlstore.WithUser(ctx, opts.User)
			}
			pool, dialect, closePool, err := openPool(ctx, rootOpts, opts.Random)
			if err != nil {
				return err
			}
			defer closePool()

			registry, err := dataelement.NewRegistry(dialect)
			if err != nil {
				return err
			}
			q, err := opts.parse(registry)
			if err != nil {
				return err
			}
			engine := sqlstore.NewEngine(dialect,
				sqlstore.WithLogger(logger.Get()),
				sqlstore.WithAccessPolicy(sqlstore.PublicOrOwnerAccess{PublicAccessColumn: "publicaccess"}),
			)
			svc := service.New(engine,
				service.WithLogger(logger.Get()),
				service.WithMaxPageSize(rootOpts.Config.Query.MaxPageSize),
			)

			return pool.Session(ctx, func(s session.Session) error {
				if opts.Count {
					n, err := svc.Count(s, q)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), n)
					return nil
				}
				elements, err := service.QueryAs[*dataelement.DataElement](svc, s, q)
				if err != nil {
					return err
				}
				return printRows(cmd, rootOpts.Format, elements)
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&opts.Random, "random", 0, "add this many random data elements to the SQLite demo data")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matches instead of the rows")
	cmd.Flags().StringVar(&opts.User, "user", "", "user whose read access applies")
	return cmd
}

func openPool(ctx context.Context, rootOpts *RootOptions, random int) (session.SessionPool, sqlstore.Dialect, func(), error) {
	dialect, err := sqlstore.DialectByName(rootOpts.Config.Driver)
	if err != nil {
		return nil, nil, nil, err
	}
	if dialect == sqlstore.Postgres {
		pool, err := pgxsession.Connect(ctx, rootOpts.Config.Database.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return pool, dialect, pool.Close, nil
	}
	db, err := sqlsession.OpenSQLite(rootOpts.Config.SQLite.DSN())
	if err != nil {
		return nil, nil, nil, err
	}
	// an in-memory database lives as long as its only connection
	db.SetMaxOpenConns(1)
	pool := sqlsession.NewSessionPool(db)
	elements := dataelement.Fixtures()
	if random > 0 {
		combos := []*dataelement.CategoryCombo{elements[0].CategoryCombo, elements[3].CategoryCombo}
		elements = append(elements, dataelement.Random(random, combos, elements[2].Groups)...)
	}
	if err := dataelement.Seed(ctx, db, elements); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return pool, dialect, func() { pool.Close() }, nil
}

func printRows(cmd *cobra.Command, format string, elements []*dataelement.DataElement) error {
	rows := make([]row, len(elements))
	for i, d := range elements {
		rows[i] = row{ID: d.UID, Name: d.Name, Code: d.Code, Created: d.Created, ValueType: d.ValueType}
	}
	if format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(rows)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCODE\tCREATED\tVALUE TYPE")
	for _, r := range rows {
		code := ""
		if r.Code != nil {
			code = *r.Code
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, code, r.Created.Format(time.DateOnly), r.ValueType)
	}
	return w.Flush()
}
