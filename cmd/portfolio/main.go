package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ElMariones/portfolio/internal/config"
	"github.com/ElMariones/portfolio/internal/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Personal portfolio website",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			return logging.Configure(v.GetString("log_level"))
		},
	}
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	serve := serveCmd(v)
	root.AddCommand(serve, contentCmd())
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}
