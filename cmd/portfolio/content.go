package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ElMariones/portfolio/internal/content"
)

func contentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect portfolio content files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a portfolio YAML file loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := content.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s, %d projects, %d skills\n", p.Profile.Name, len(p.Projects), len(p.Skills))
			return nil
		},
	})
	return cmd
}
