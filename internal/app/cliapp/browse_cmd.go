package cliapp

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sickboy81/saphira/internal/filters"
)

func newBrowseCommand(a *App) *cobra.Command {
	var (
		cursor string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List profiles matching the saved filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := a.loadFilters(cmd.Context())
			if err != nil {
				return err
			}
			page, err := a.api.Profiles(cmd.Context(), state, cursor, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if page.Fallback {
				fmt.Fprintln(out, "Listings are unavailable, showing sample profiles")
			}
			printProfiles(out, page.Items)
			if page.NextCursor != "" {
				fmt.Fprintf(out, "\nMore: saphira browse --cursor %s\n", page.NextCursor)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue from a previous page")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	return cmd
}

func newProfileCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <id>",
		Short: "Show one profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.api.Profile(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func newFiltersCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show and edit the saved listing filters",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := a.loadFilters(cmd.Context())
			if err != nil {
				return err
			}
			printFilters(cmd.OutOrStdout(), state)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset every filter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, persistErr, err := a.openFilters(cmd.Context())
			if err != nil {
				return err
			}
			next := m.Clear(a.cfg.Filters.Bounds())
			if err := persistErr(); err != nil {
				return err
			}
			printFilters(cmd.OutOrStdout(), next)
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <field> <value>",
		Short: "Add or remove a value of a multi-select filter",
		Long: `Add or remove a value of a multi-select filter.

Fields: gender, hair_color, body_type, ethnicity, services, payment_methods.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, ok := filters.ParseSetField(args[0])
			if !ok {
				return fmt.Errorf("unknown filter field %q", args[0])
			}
			value := strings.TrimSpace(args[1])
			if !containsValue(filters.Vocabulary(field), value) {
				return fmt.Errorf("%q is not a %s option (%s)", value, field.Name(), strings.Join(filters.Vocabulary(field), ", "))
			}

			m, persistErr, err := a.openFilters(cmd.Context())
			if err != nil {
				return err
			}
			next := m.ToggleMember(field, value)
			if err := persistErr(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", field.Name(), strings.Join(filters.Members(field, next), ", "))
			return nil
		},
	}

	cmd.AddCommand(show, newFiltersSetCommand(a), toggle, clearCmd)
	return cmd
}

func newFiltersSetCommand(a *App) *cobra.Command {
	var (
		state, city, neighborhood, category, keyword string
		hasPlace, videoCall                          string
		priceMax, ageMin, ageMax                     int
		verified                                     bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace single-value filters",
		Long: `Replace single-value filters. Only the flags given are changed.

Changing --state clears the city unless --city is given too. --price-max 0
removes the price cap. --has-place and --video-call take true, false or any.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, persistErr, err := a.openFilters(cmd.Context())
			if err != nil {
				return err
			}
			current := m.Current()
			flags := cmd.Flags()

			var p filters.Patch
			if flags.Changed("state") {
				p.State = filters.Set(strings.ToUpper(strings.TrimSpace(state)))
			}
			if flags.Changed("city") {
				p.City = filters.Set(strings.TrimSpace(city))
			}
			if flags.Changed("neighborhood") {
				p.Neighborhood = filters.Set(strings.TrimSpace(neighborhood))
			}
			if flags.Changed("price-max") {
				if priceMax == 0 {
					p.PriceMax = filters.Set[*int](nil)
				} else {
					p.PriceMax = filters.Set(filters.IntPtr(priceMax))
				}
			}
			if flags.Changed("age-min") || flags.Changed("age-max") {
				ages := current.AgeRange
				if flags.Changed("age-min") {
					ages.Min = ageMin
				}
				if flags.Changed("age-max") {
					ages.Max = ageMax
				}
				p.AgeRange = filters.Set(ages)
			}
			if flags.Changed("has-place") {
				v, err := filters.ParseTriState(hasPlace)
				if err != nil {
					return fmt.Errorf("--has-place: %w", err)
				}
				p.HasPlace = filters.Set(v)
			}
			if flags.Changed("video-call") {
				v, err := filters.ParseTriState(videoCall)
				if err != nil {
					return fmt.Errorf("--video-call: %w", err)
				}
				p.VideoCall = filters.Set(v)
			}
			if flags.Changed("verified") {
				p.VerifiedOnly = filters.Set(verified)
			}
			if flags.Changed("category") {
				if c := strings.TrimSpace(category); c == "" {
					p.Category = filters.Set[*string](nil)
				} else {
					p.Category = filters.Set(filters.StringPtr(c))
				}
			}
			if flags.Changed("keyword") {
				p.Keyword = filters.Set(strings.TrimSpace(keyword))
			}

			merged := filters.Merge(current, p)
			if c, ok := p.City.Get(); ok && c != "" && merged.Location.State == "" {
				return fmt.Errorf("%w: city requires a state", filters.ErrInvalidFilter)
			}
			if err := merged.Validate(a.cfg.Filters.Bounds()); err != nil {
				return err
			}
			next := m.ReplaceFields(p)
			if err := persistErr(); err != nil {
				return err
			}
			printFilters(cmd.OutOrStdout(), next)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&state, "state", "", "state code, empty for any")
	f.StringVar(&city, "city", "", "city within the state")
	f.StringVar(&neighborhood, "neighborhood", "", "neighborhood text")
	f.IntVar(&priceMax, "price-max", 0, "maximum price, 0 for no cap")
	f.IntVar(&ageMin, "age-min", 0, "minimum age")
	f.IntVar(&ageMax, "age-max", 0, "maximum age")
	f.StringVar(&hasPlace, "has-place", "any", "true, false or any")
	f.StringVar(&videoCall, "video-call", "any", "true, false or any")
	f.BoolVar(&verified, "verified", false, "verified profiles only")
	f.StringVar(&category, "category", "", "category, empty for any")
	f.StringVar(&keyword, "keyword", "", "free text search")
	return cmd
}

func containsValue(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
