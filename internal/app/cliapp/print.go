package cliapp

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/filters"
)

func printProfiles(w io.Writer, items []model.Profile) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No profiles found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tAGE\tPRICE\tVERIFIED")
	for _, p := range items {
		attrs := p.Attributes
		location := attrs.State
		if attrs.City != "" {
			location = attrs.City + "/" + attrs.State
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.DisplayName, location, orDash(attrs.Age), orDash(attrs.Price), yesNo(attrs.Verified))
	}
	_ = tw.Flush()
}

func printProfile(w io.Writer, p model.Profile) {
	a := p.Attributes
	fmt.Fprintf(w, "%s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(w, "  location:  %s\n", joinNonEmpty(", ", a.Neighborhood, a.City, a.State))
	fmt.Fprintf(w, "  gender:    %s\n", a.Gender)
	fmt.Fprintf(w, "  age:       %s\n", orDash(a.Age))
	fmt.Fprintf(w, "  price:     %s\n", orDash(a.Price))
	fmt.Fprintf(w, "  looks:     %s\n", joinNonEmpty(", ", a.HairColor, a.BodyType, a.Ethnicity))
	fmt.Fprintf(w, "  services:  %s\n", strings.Join(a.Services, ", "))
	fmt.Fprintf(w, "  payment:   %s\n", strings.Join(a.PaymentMethods, ", "))
	fmt.Fprintf(w, "  own place: %s  video call: %s  verified: %s\n", yesNo(a.HasPlace), yesNo(a.VideoCall), yesNo(a.Verified))
	if a.Bio != "" {
		fmt.Fprintf(w, "  bio:       %s\n", a.Bio)
	}
	for _, m := range p.Media {
		fmt.Fprintf(w, "  %-5s %s\n", m.Type, m.URL)
	}
}

func printFilters(w io.Writer, s filters.State) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "state\t%s\n", s.Location.State)
	fmt.Fprintf(tw, "city\t%s\n", s.Location.City)
	fmt.Fprintf(tw, "neighborhood\t%s\n", s.Neighborhood)
	price := "no cap"
	if s.PriceMax != nil {
		price = fmt.Sprint(*s.PriceMax)
	}
	fmt.Fprintf(tw, "price_max\t%s\n", price)
	fmt.Fprintf(tw, "age\t%d-%d\n", s.AgeRange.Min, s.AgeRange.Max)
	for _, f := range filters.SetFields() {
		fmt.Fprintf(tw, "%s\t%s\n", f.Name(), strings.Join(filters.Members(f, s), ", "))
	}
	fmt.Fprintf(tw, "has_place\t%s\n", s.HasPlace)
	fmt.Fprintf(tw, "video_call\t%s\n", s.VideoCall)
	fmt.Fprintf(tw, "verified_only\t%t\n", s.VerifiedOnly)
	category := ""
	if s.Category != nil {
		category = *s.Category
	}
	fmt.Fprintf(tw, "category\t%s\n", category)
	fmt.Fprintf(tw, "keyword\t%s\n", s.Keyword)
	_ = tw.Flush()
}

func orDash(v int) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprint(v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
