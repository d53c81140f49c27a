package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the wireQ client.
// It registers the receive, stats and health commands.
func NewRoot(defaults DefaultsFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "wireq",
		Short: "wireQ client commands",
	}
	root.AddCommand(NewReceiveCommand(defaults))
	root.AddCommand(NewStatsCommand(defaults))
	root.AddCommand(NewHealthCommand())
	return root
}
