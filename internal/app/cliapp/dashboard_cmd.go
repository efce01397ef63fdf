package cliapp

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sickboy81/saphira/internal/filters"
)

func newDashboardCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "dashboard",
		Short:             "Manage your advertiser listing",
		PersistentPreRunE: guardedPreRun(a, "/dashboard"),
	}

	overview := &cobra.Command{
		Use:   "overview",
		Short: "Show your listing and what is missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := a.api.DashboardOverview(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printProfile(out, ov.Profile)
			fmt.Fprintf(out, "\nimages: %d  videos: %d\n", ov.ImageCount, ov.VideoCount)
			if ov.Complete {
				fmt.Fprintln(out, "Listing is complete")
			} else {
				fmt.Fprintf(out, "Missing: %s\n", strings.Join(ov.Missing, ", "))
			}
			return nil
		},
	}

	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image or video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
			if contentType == "" {
				head := make([]byte, 512)
				n, _ := f.Read(head)
				contentType = http.DetectContentType(head[:n])
				if _, err := f.Seek(0, 0); err != nil {
					return err
				}
			}

			m, err := a.api.UploadMedia(cmd.Context(), filepath.Base(path), contentType, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s %s\n", m.Type, m.ID)
			return nil
		},
	}

	cmd.AddCommand(overview, newDashboardEditCommand(a), upload)
	return cmd
}

func newDashboardEditCommand(a *App) *cobra.Command {
	var (
		name, state, city, neighborhood, gender string
		hairColor, bodyType, ethnicity, bio     string
		category                                string
		services, payments                      []string
		price, age                              int
		hasPlace, videoCall                     bool
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your listing",
		Long: `Edit your listing. Only the flags given are changed; values must come
from the filter vocabularies (see ` + "`saphira filters show`" + `).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := a.api.DashboardOverview(cmd.Context())
			if err != nil {
				return err
			}
			displayName := ov.Profile.DisplayName
			attrs := ov.Profile.Attributes
			flags := cmd.Flags()

			if flags.Changed("name") {
				displayName = name
			}
			if flags.Changed("state") {
				attrs.State = strings.ToUpper(strings.TrimSpace(state))
				if !flags.Changed("city") {
					attrs.City = ""
				}
			}
			if flags.Changed("city") {
				attrs.City = city
			}
			if flags.Changed("neighborhood") {
				attrs.Neighborhood = neighborhood
			}
			if flags.Changed("gender") {
				attrs.Gender = gender
			}
			if flags.Changed("hair-color") {
				attrs.HairColor = hairColor
			}
			if flags.Changed("body-type") {
				attrs.BodyType = bodyType
			}
			if flags.Changed("ethnicity") {
				attrs.Ethnicity = ethnicity
			}
			if flags.Changed("services") {
				attrs.Services = services
			}
			if flags.Changed("payment-methods") {
				attrs.PaymentMethods = payments
			}
			if flags.Changed("price") {
				attrs.Price = price
			}
			if flags.Changed("age") {
				attrs.Age = age
			}
			if flags.Changed("has-place") {
				attrs.HasPlace = hasPlace
			}
			if flags.Changed("video-call") {
				attrs.VideoCall = videoCall
			}
			if flags.Changed("category") {
				attrs.Category = category
			}
			if flags.Changed("bio") {
				attrs.Bio = bio
			}

			if err := filters.ValidateListing(attrs); err != nil {
				return err
			}
			updated, err := a.api.UpdateDashboardProfile(cmd.Context(), displayName, attrs)
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&state, "state", "", "state code")
	f.StringVar(&city, "city", "", "city within the state")
	f.StringVar(&neighborhood, "neighborhood", "", "neighborhood")
	f.StringVar(&gender, "gender", "", "gender")
	f.StringVar(&hairColor, "hair-color", "", "hair color")
	f.StringVar(&bodyType, "body-type", "", "body type")
	f.StringVar(&ethnicity, "ethnicity", "", "ethnicity")
	f.StringSliceVar(&services, "services", nil, "services offered, comma separated")
	f.StringSliceVar(&payments, "payment-methods", nil, "accepted payment methods, comma separated")
	f.IntVar(&price, "price", 0, "price")
	f.IntVar(&age, "age", 0, "age")
	f.BoolVar(&hasPlace, "has-place", false, "has own place")
	f.BoolVar(&videoCall, "video-call", false, "offers video calls")
	f.StringVar(&category, "category", "", "category")
	f.StringVar(&bio, "bio", "", "short description")
	return cmd
}
