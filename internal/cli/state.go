package cli

import (
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Display the notification state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ShowState()
	},
}
