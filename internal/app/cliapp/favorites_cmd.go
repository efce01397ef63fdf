package cliapp

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFavoritesCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Favorites kept on this device",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show favorite profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.favorites.Load(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.favorites.Degraded() {
				fmt.Fprintf(out, "Favorites could not be loaded right now (%d saved)\n", len(a.favorites.IDs()))
				if partial := a.favorites.Profiles(); len(partial) > 0 {
					printProfiles(out, partial)
				}
				return nil
			}
			printProfiles(out, a.favorites.Profiles())
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a profile to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if err := a.favorites.Load(cmd.Context()); err != nil {
				return err
			}
			if a.favorites.Contains(id) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already a favorite\n", id)
				return nil
			}
			if _, err := a.favorites.Toggle(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", id)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a profile from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if err := a.favorites.Load(cmd.Context()); err != nil {
				return err
			}
			if !a.favorites.Contains(id) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not a favorite\n", id)
				return nil
			}
			if err := a.favorites.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
