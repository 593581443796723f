package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/format"
	"github.com/kittycad/kittycad-go/option"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in and out of the API",
	}

	var (
		clientID  string
		withToken bool
	)
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in with the OAuth device flow, or store a token read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var token string
			if withToken {
				data, err := io.ReadAll(a.input())
				if err != nil {
					return err
				}
				token = strings.TrimSpace(string(data))
				if token == "" {
					return fmt.Errorf("no token on stdin")
				}
			} else {
				if clientID == "" {
					clientID = a.cfg.OAuthClientID
				}
				if clientID == "" {
					return fmt.Errorf("--client-id or oauth_client_id in the config file is required")
				}
				id, err := uuid.Parse(clientID)
				if err != nil {
					return fmt.Errorf("invalid client id %q: %w", clientID, err)
				}
				device, err := a.client.OAuth2.DeviceAuthRequest(ctx, kittycad.OAuth2DeviceAuthRequestParams{ClientID: kittycad.F(id)})
				if err != nil {
					return err
				}
				uri := device.VerificationURIComplete
				if uri == "" {
					uri = device.VerificationURI
				}
				fmt.Fprintf(a.stderr, "Open %s and enter the code %s\n", uri, device.UserCode)
				tok, err := a.client.OAuth2.PollDeviceAccessToken(ctx, kittycad.OAuth2DeviceAccessTokenParams{
					ClientID:   kittycad.F(id),
					DeviceCode: kittycad.F(device.DeviceCode),
				}, time.Duration(device.Interval)*time.Second)
				if err != nil {
					return err
				}
				token = tok.AccessToken
			}

			user, err := a.client.Users.GetSelf(ctx, option.WithAPIToken(token))
			if err != nil {
				return fmt.Errorf("token was not accepted: %w", err)
			}
			if err := a.cfg.SaveToken(token); err != nil {
				return err
			}
			path, _ := a.cfg.Path()
			a.log.Info("token saved", "path", path)
			return a.out.Text("Logged in as " + user.Email)
		},
	}
	login.Flags().StringVar(&clientID, "client-id", "", "OAuth client id of this CLI (default oauth_client_id from the config file)")
	login.Flags().BoolVar(&withToken, "with-token", false, "Read an API token from stdin instead")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ClearToken(); err != nil {
				return err
			}
			if a.cfg.TokenSource() == "env" {
				a.log.Warn("a token is still set in the environment")
			}
			return a.out.Text("Logged out")
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether a token is set and who it belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source := a.cfg.TokenSource()
			if source == "" {
				return fmt.Errorf("not logged in")
			}
			user, err := a.client.Users.GetSelf(cmd.Context())
			if err != nil {
				return err
			}
			if a.out.Format == format.JSONFormat {
				return a.out.JSON(map[string]string{"source": source, "email": user.Email, "id": user.ID.String()})
			}
			return a.out.Text(fmt.Sprintf("Logged in as %s (token from %s)", user.Email, source))
		},
	}

	cmd.AddCommand(login, logout, status)
	return cmd
}
