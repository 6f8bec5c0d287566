// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/azure-ai-foundry/foundry-samples/go/internal/config"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/samples"
)

func newListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the samples and the settings they need",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.envFile)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tREADY\tDESCRIPTION")
			for _, s := range samples.Catalog() {
				ready := "yes"
				if missing := cfg.Missing(s.Requires...); len(missing) > 0 {
					ready = "missing " + strings.Join(missing, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ready, s.Description)
			}
			return w.Flush()
		},
	}
}

// sampleNames completes sample names for the run command.
func sampleNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, s := range samples.Catalog() {
		if !slices.Contains(args, s.Name) {
			names = append(names, s.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
