package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/packages/pagination"
)

func newOrgCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Show your org and its members",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the org you belong to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := a.client.Orgs.Get(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.Result(org, []string{"id", "name", "billing_email", "created_at"}, func() [][]string {
				return [][]string{{org.ID.String(), org.Name, org.BillingEmail, formatTime(org.CreatedAt)}}
			})
		},
	})

	var (
		page pageFlags
		role string
	)
	members := &cobra.Command{
		Use:   "members",
		Short: "List the members of your org",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := page.params()
			if err != nil {
				return err
			}
			query := kittycad.OrgListMembersParams{PageParams: params}
			if role != "" {
				r := kittycad.OrgRole(role)
				if !r.IsKnown() {
					return fmt.Errorf("unknown role %q", role)
				}
				query.Role = kittycad.F(r)
			}
			items, err := collect(a, page,
				func() (*pagination.ResultsPage[kittycad.OrgMember], error) {
					return a.client.Orgs.ListMembers(cmd.Context(), query)
				},
				func() *pagination.ResultsPageAutoPager[kittycad.OrgMember] {
					return a.client.Orgs.ListMembersAutoPaging(cmd.Context(), query)
				})
			if err != nil {
				return err
			}
			return a.out.Result(items, []string{"id", "email", "name", "role"}, func() [][]string {
				rows := make([][]string, len(items))
				for i, m := range items {
					rows[i] = []string{m.ID.String(), m.Email, m.Name, string(m.Role)}
				}
				return rows
			})
		},
	}
	addPageFlags(members, &page)
	members.Flags().StringVar(&role, "role", "", "Only members with this role (admin, member, service_account)")
	cmd.AddCommand(members)
	return cmd
}

func newPaymentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Show your balance and invoices",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Show your remaining credits and amount due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := a.client.Payments.GetBalance(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.Result(bal, []string{"monthly_credits", "prepay_credits", "prepay_cash", "total_due"}, func() [][]string {
				return [][]string{{
					money(bal.MonthlyCreditsRemaining),
					money(bal.PrePayCreditsRemaining),
					money(bal.PrePayCashRemaining),
					money(bal.TotalDue),
				}}
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "invoices",
		Short: "List your invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			invoices, err := a.client.Payments.ListInvoices(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.Result(invoices, []string{"number", "status", "amount_due", "currency", "paid", "created_at"}, func() [][]string {
				rows := make([][]string, len(invoices))
				for i, inv := range invoices {
					rows[i] = []string{inv.Number, string(inv.Status), money(inv.AmountDue), inv.Currency, formatBool(inv.Paid), formatTime(inv.CreatedAt)}
				}
				return rows
			})
		},
	})
	return cmd
}

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
