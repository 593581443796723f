package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/format"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pong, err := a.client.Meta.Ping(cmd.Context())
			if err != nil {
				return err
			}
			if a.out.Format == format.JSONFormat {
				return a.out.JSON(pong)
			}
			return a.out.Text(pong.Message)
		},
	}
}

func userRows(users ...kittycad.User) [][]string {
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = []string{u.ID.String(), u.Email, u.Name, u.Company, formatTime(u.CreatedAt)}
	}
	return rows
}

var userHeaders = []string{"id", "email", "name", "company", "created_at"}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user the API token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Users.GetSelf(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.Result(user, userHeaders, func() [][]string { return userRows(*user) })
		},
	}
}

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id|email>",
		Short: "Get a user by id or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Users.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Result(user, userHeaders, func() [][]string { return userRows(*user) })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "extended",
		Short: "Show the current user with billing ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Users.GetSelfExtended(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.Result(user, []string{"id", "email", "stripe_id"}, func() [][]string {
				return [][]string{{user.ID.String(), user.Email, user.StripeID}}
			})
		},
	})
	return cmd
}
