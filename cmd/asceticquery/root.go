package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/config"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Format     string // "json" | "text"
	Verbose    bool
	Config     config.Config
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "asceticquery",
		Short: "Filter, sort and page entities with the ascetic query engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.LoadConfig(opts.ConfigFile)
			if err != nil {
				return err
			}
			if opts.Verbose {
				cfg.Log.Level = "DEBUG"
			}
			opts.Config = cfg
			logger.Init(cfg.Log)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(NewSplitCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}
