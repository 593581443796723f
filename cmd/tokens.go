package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/packages/pagination"
)

func newAPITokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "api-token",
		Aliases: []string{"api-tokens"},
		Short:   "Manage API tokens of the current user",
	}

	var page pageFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List API tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := page.params()
			if err != nil {
				return err
			}
			query := kittycad.APITokenListParams{PageParams: params}
			tokens, err := collect(a, page,
				func() (*pagination.ResultsPage[kittycad.APIToken], error) {
					return a.client.APITokens.List(cmd.Context(), query)
				},
				func() *pagination.ResultsPageAutoPager[kittycad.APIToken] {
					return a.client.APITokens.ListAutoPaging(cmd.Context(), query)
				})
			if err != nil {
				return err
			}
			return a.out.Result(tokens, []string{"id", "label", "is_valid", "created_at"}, func() [][]string {
				rows := make([][]string, len(tokens))
				for i, t := range tokens {
					rows[i] = []string{t.ID.String(), t.Label, formatBool(t.IsValid), formatTime(t.CreatedAt)}
				}
				return rows
			})
		},
	}
	addPageFlags(list, &page)

	var label string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API token; the token is only shown once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var params kittycad.APITokenNewParams
			if label != "" {
				params.Label = kittycad.F(label)
			}
			token, err := a.client.APITokens.New(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.out.Result(token, []string{"id", "label", "token"}, func() [][]string {
				return [][]string{{token.ID.String(), token.Label, token.Token}}
			})
		},
	}
	create.Flags().StringVar(&label, "label", "", "A label to tell the token apart")

	del := &cobra.Command{
		Use:   "delete <token>",
		Short: "Delete an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.APITokens.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.out.Text("deleted " + args[0])
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func apiCallRows(calls ...kittycad.APICallWithPrice) [][]string {
	rows := make([][]string, len(calls))
	for i, c := range calls {
		status := ""
		if c.StatusCode != nil {
			status = strconv.FormatInt(*c.StatusCode, 10)
		}
		rows[i] = []string{c.ID.String(), string(c.Method), c.Endpoint, status, formatFloat(c.Price), formatTime(c.CreatedAt)}
	}
	return rows
}

var apiCallHeaders = []string{"id", "method", "endpoint", "status_code", "price", "created_at"}

func newAPICallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "api-call",
		Aliases: []string{"api-calls"},
		Short:   "Inspect the API calls made with your account",
	}

	var page pageFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List API calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := page.params()
			if err != nil {
				return err
			}
			query := kittycad.APICallListParams{PageParams: params}
			calls, err := collect(a, page,
				func() (*pagination.ResultsPage[kittycad.APICallWithPrice], error) {
					return a.client.APICalls.ListForUser(cmd.Context(), query)
				},
				func() *pagination.ResultsPageAutoPager[kittycad.APICallWithPrice] {
					return a.client.APICalls.ListForUserAutoPaging(cmd.Context(), query)
				})
			if err != nil {
				return err
			}
			return a.out.Result(calls, apiCallHeaders, func() [][]string { return apiCallRows(calls...) })
		},
	}
	addPageFlags(list, &page)

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Get one API call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := a.client.APICalls.GetForUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Result(call, apiCallHeaders, func() [][]string { return apiCallRows(*call) })
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}
