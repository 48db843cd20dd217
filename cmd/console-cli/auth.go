package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/railconsole/internal/authgate"
)

func newLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the console backend",
		Long: `Log in with a username and password. The returned token and the logged-in
flag are kept in client storage for later commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			resp, err := client.Login(ctx, username, password)
			if err != nil {
				return err
			}
			if err := gate.Login(ctx, resp.Token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (token expires %s)\n",
				resp.Username, resp.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored login",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := gate.Logout(cmd.Context()); err != nil {
				return err
			}
			client.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the login state kept in client storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			loggedIn, err := gate.IsLoggedIn(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:    %s\n", client.BaseURL())
			fmt.Fprintf(out, "Storage:   %s\n", store.Path())
			fmt.Fprintf(out, "Logged in: %t\n", loggedIn)

			token := client.GetToken()
			if token == "" {
				return nil
			}
			expiry, err := authgate.TokenExpiry(token)
			switch {
			case err != nil:
				fmt.Fprintf(out, "Token:     unreadable (%v)\n", err)
			case expiry.IsZero():
				fmt.Fprintln(out, "Token:     no expiry")
			case time.Now().After(expiry):
				fmt.Fprintf(out, "Token:     expired at %s\n", expiry.Format(time.RFC3339))
			default:
				fmt.Fprintf(out, "Token:     valid until %s\n", expiry.Format(time.RFC3339))
			}
			return nil
		},
	}
}
