package cli

import (
	"github.com/spf13/cobra"

	"stockmon/internal/app"
)

var checkDryRun bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one evaluation and notify new alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Check(cmd.Context(), app.CheckOptions{DryRun: checkDryRun})
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "Print decisions without sending notifications or updating state")
}
