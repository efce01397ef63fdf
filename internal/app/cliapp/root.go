package cliapp

import (
	"github.com/spf13/cobra"
)

func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "saphira",
		Short: "Browse the saphira directory from the terminal",
		Long: `saphira is the command line client for the saphira directory.

Browse and filter listings, keep favorites on this device, manage your
advertiser listing and, for super admins, the user base.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.prepare(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.Close()
		},
	}
	root.SetOut(a.out)

	root.AddCommand(
		newRegisterCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newTOTPCommand(a),
		newBrowseCommand(a),
		newProfileCommand(a),
		newFiltersCommand(a),
		newFavoritesCommand(a),
		newDashboardCommand(a),
		newAdminCommand(a),
	)
	return root
}

// guardedPreRun prepares the app and then applies the route table for area.
// A subcommand hook replaces the root hook, so preparation runs here too.
func guardedPreRun(a *App, area string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := a.prepare(cmd.Context()); err != nil {
			return err
		}
		return a.requireArea(cmd.Context(), area)
	}
}
