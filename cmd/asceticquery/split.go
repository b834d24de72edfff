package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/parser"
)

func NewSplitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "split <filters>",
		Short:        "Split a comma-joined filter list",
		Example:      `  asceticquery split "age:eq:20,name:in:[Peter,Paul,Mary],points:lt:200"`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := parser.SplitFilters(args[0])
			if rootOpts.Format == "json" {
				if filters == nil {
					filters = []string{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				return enc.Encode(filters)
			}
			if len(filters) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(filters, "\n"))
			}
			return nil
		},
	}
}
