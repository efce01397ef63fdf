package cliapp

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAdminCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "admin",
		Short:             "Back office for super admins",
		PersistentPreRunE: guardedPreRun(a, "/admin"),
	}

	var search string
	users := &cobra.Command{
		Use:   "users",
		Short: "List users, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.api.AdminUsers(cmd.Context(), search)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tROLE\tBANNED\tCREATED")
			for _, u := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.DisplayName, u.Role, yesNo(u.IsBanned), u.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
	users.Flags().StringVar(&search, "search", "", "filter by name or role")

	cmd.AddCommand(users, newBanCommand(a, true), newBanCommand(a, false))
	return cmd
}

func newBanCommand(a *App, banned bool) *cobra.Command {
	verb := "unban"
	if banned {
		verb = "ban"
	}
	return &cobra.Command{
		Use:   verb + " <user-id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if err := a.api.SetBanned(cmd.Context(), id, banned); err != nil {
				return fmt.Errorf("could not %s %s: %w", verb, id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sned %s\n", verb, id)
			return nil
		},
	}
}
