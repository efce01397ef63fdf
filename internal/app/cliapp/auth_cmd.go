package cliapp

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sickboy81/saphira/internal/client"
	"github.com/sickboy81/saphira/internal/domain/enums"
)

func newRegisterCommand(a *App) *cobra.Command {
	var (
		email, password, confirm, name, role string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := enums.ParseRole(role)
			if err != nil {
				return err
			}
			if confirm == "" {
				confirm = password
			}
			sess, err := a.auth.Register(cmd.Context(), client.RegisterInput{
				Email:           email,
				Password:        password,
				ConfirmPassword: confirm,
				DisplayName:     name,
				Role:            parsed,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", sess.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(enums.RoleVisitor), "visitor or advertiser")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLoginCommand(a *App) *cobra.Command {
	var email, password, otp string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.auth.Login(cmd.Context(), email, password, otp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&otp, "otp", "", "one-time code when two-factor is enabled")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.session.SignOut(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			if err != nil {
				return fmt.Errorf("signed out locally, server sign out failed: %w", err)
			}
			return nil
		},
	}
}

func newWhoamiCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if snap.Session == nil {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			role := "unresolved"
			if snap.Role != nil {
				role = string(*snap.Role)
			}
			fmt.Fprintf(out, "%s (%s)\nrole: %s\n", snap.Session.Email, snap.Session.UserID, role)
			return nil
		},
	}
}

func newTOTPCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totp",
		Short: "Manage two-factor sign in",
	}

	var qrPath string
	setup := &cobra.Command{
		Use:   "setup",
		Short: "Start two-factor enrollment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.api.SetupTOTP(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secret: %s\nurl: %s\n", res.Secret, res.URL)
			if qrPath != "" && len(res.QRCodePNG) > 0 {
				if err := os.WriteFile(qrPath, res.QRCodePNG, 0o600); err != nil {
					return fmt.Errorf("write qr code: %w", err)
				}
				fmt.Fprintf(out, "QR code written to %s\n", qrPath)
			}
			fmt.Fprintln(out, "Confirm with `saphira totp enable <code>`")
			return nil
		},
	}
	setup.Flags().StringVar(&qrPath, "qr", "", "write the enrollment QR code PNG to this file")

	enable := &cobra.Command{
		Use:   "enable <code>",
		Short: "Confirm two-factor enrollment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.EnableTOTP(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Two-factor sign in enabled")
			return nil
		},
	}

	cmd.AddCommand(setup, enable)
	return cmd
}
