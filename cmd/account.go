package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"appreview/internal/bootstrap"
	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
	"appreview/internal/usecase/account"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Register accounts and issue API tokens",
}

var accountRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		fullName, _ := cmd.Flags().GetString("full-name")
		supervisor, _ := cmd.Flags().GetBool("supervisor")
		password, err := resolvePassword(cmd)
		if err != nil {
			return err
		}

		user, err := svc.Accounts.Register(ctx, account.RegisterInput{
			Username:     username,
			Email:        email,
			FullName:     fullName,
			Password:     password,
			IsSupervisor: supervisor,
		})
		if err != nil {
			return errs.Wrap(err, "register account")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "registered %s id=%d supervisor=%t\n", user.Username, user.ID, supervisor); err != nil {
			return errs.Wrap(err, "write register output")
		}
		return nil
	}),
}

var accountLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify credentials and print a bearer token",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		username, _ := cmd.Flags().GetString("username")
		password, err := resolvePassword(cmd)
		if err != nil {
			return err
		}

		session, err := svc.Accounts.Login(ctx, username, password)
		if err != nil {
			return errs.Wrap(err, "login")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", session.Token, session.ExpiresAt.Format("2006-01-02 15:04:05 MST")); err != nil {
			return errs.Wrap(err, "write login output")
		}
		return nil
	}),
}

// resolvePassword prefers --password, then the APPREVIEW_PASSWORD environment variable.
func resolvePassword(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("APPREVIEW_PASSWORD")
	}
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("password is required (set --password or APPREVIEW_PASSWORD)")
	}
	return password, nil
}

func init() {
	rootCmd.AddCommand(accountCmd)

	accountCmd.AddCommand(accountRegisterCmd)
	accountRegisterCmd.Flags().String("username", "", "Username")
	accountRegisterCmd.Flags().String("email", "", "Email address")
	accountRegisterCmd.Flags().String("full-name", "", "Display name")
	accountRegisterCmd.Flags().String("password", "", "Password")
	accountRegisterCmd.Flags().Bool("supervisor", false, "Register as supervisor")
	_ = accountRegisterCmd.MarkFlagRequired("username")
	_ = accountRegisterCmd.MarkFlagRequired("email")

	accountCmd.AddCommand(accountLoginCmd)
	accountLoginCmd.Flags().String("username", "", "Username")
	accountLoginCmd.Flags().String("password", "", "Password")
	_ = accountLoginCmd.MarkFlagRequired("username")
}
