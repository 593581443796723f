package kittycad_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/testutil"
	"github.com/kittycad/kittycad-go/option"
	"github.com/kittycad/kittycad-go/packages/pagination"
)

const (
	userJSON    = `{"id":"6b0b9c5e-0000-4000-8000-000000000001","first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:04:05Z"}`
	tokenJSON   = `{"id":"6b0b9c5e-0000-4000-8000-000000000002","is_valid":true,"label":"ci","token":"tok-1","user_id":"6b0b9c5e-0000-4000-8000-000000000001","created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:04:05Z"}`
	orgJSON     = `{"id":"6b0b9c5e-0000-4000-8000-000000000003","name":"Analytical Engines","domain":"engines.example","created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:04:05Z"}`
	memberJSON  = `{"id":"6b0b9c5e-0000-4000-8000-000000000001","role":"admin","email":"ada@example.com","created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:04:05Z"}`
	custJSON    = `{"id":"cus_1","balance":12.5,"currency":"usd","email":"ada@example.com","created_at":"2026-01-02T03:04:05Z"}`
	apiCallJSON = `{"id":"6b0b9c5e-0000-4000-8000-000000000004","endpoint":"/ping","method":"GET","status_code":200,"created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:04:05Z"}`
)

// TestServiceRequests checks the method, path, query and body each operation
// sends, and that the answer decodes.
func TestServiceRequests(t *testing.T) {
	t.Parallel()

	type call func(ctx context.Context, c *kittycad.Client) (any, error)
	tests := []struct {
		name      string
		method    string
		route     string
		response  string
		call      call
		wantPath  string
		wantQuery url.Values
		wantBody  string
		check     func(t *testing.T, res any)
	}{
		{
			name:     "ping",
			method:   http.MethodGet,
			route:    "/ping",
			response: `{"message":"pong"}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Meta.Ping(ctx)
			},
			check: func(t *testing.T, res any) {
				assert.Equal(t, "pong", res.(*kittycad.Pong).Message)
			},
		},
		{
			name:     "ip info",
			method:   http.MethodGet,
			route:    "/_meta/ipinfo",
			response: `{"ip":"192.0.2.1","country":"GB","is_in_european_union":false}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Meta.GetIPInfo(ctx)
			},
			check: func(t *testing.T, res any) {
				assert.Equal(t, "192.0.2.1", res.(*kittycad.IPAddrInfo).IP)
			},
		},
		{
			name:     "schema",
			method:   http.MethodGet,
			route:    "/",
			response: `{"openapi":"3.0.3"}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Meta.GetSchema(ctx)
			},
			check: func(t *testing.T, res any) {
				assert.JSONEq(t, `{"openapi":"3.0.3"}`, string(res.([]byte)))
			},
		},
		{
			name:     "get self extended",
			method:   http.MethodGet,
			route:    "/user/extended",
			response: `{"id":"6b0b9c5e-0000-4000-8000-000000000001","email":"ada@example.com","stripe_id":"cus_1"}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Users.GetSelfExtended(ctx)
			},
			check: func(t *testing.T, res any) {
				u := res.(*kittycad.ExtendedUser)
				assert.Equal(t, "cus_1", u.StripeID)
				assert.Equal(t, "ada@example.com", u.Email)
			},
		},
		{
			name:     "update self",
			method:   http.MethodPut,
			route:    "/user",
			response: userJSON,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Users.UpdateSelf(ctx, kittycad.UserUpdateSelfParams{
					FirstName: kittycad.F("Ada"),
					Company:   kittycad.Null[string](),
				})
			},
			wantBody: `{"company":null,"first_name":"Ada"}`,
			check: func(t *testing.T, res any) {
				assert.Equal(t, "Ada Lovelace", res.(*kittycad.User).DisplayName())
			},
		},
		{
			name:     "get user escapes the id",
			method:   http.MethodGet,
			route:    "/users/:id",
			response: userJSON,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Users.Get(ctx, "ada@example.com")
			},
			wantPath: "/users/ada@example.com",
		},
		{
			name:     "session",
			method:   http.MethodGet,
			route:    "/user/session/:token",
			response: `{"id":"6b0b9c5e-0000-4000-8000-000000000005","session_token":"6b0b9c5e-0000-4000-8000-000000000006","user_id":"6b0b9c5e-0000-4000-8000-000000000001"}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Users.GetSession(ctx, "6b0b9c5e-0000-4000-8000-000000000006")
			},
			wantPath: "/user/session/6b0b9c5e-0000-4000-8000-000000000006",
		},
		{
			name:     "new api token",
			method:   http.MethodPost,
			route:    "/user/api-tokens",
			response: tokenJSON,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.APITokens.New(ctx, kittycad.APITokenNewParams{Label: kittycad.F("ci")})
			},
			wantQuery: url.Values{"label": {"ci"}},
			check: func(t *testing.T, res any) {
				tok := res.(*kittycad.APIToken)
				assert.True(t, tok.IsValid)
				assert.Equal(t, "tok-1", tok.Token)
			},
		},
		{
			name:     "list api tokens",
			method:   http.MethodGet,
			route:    "/user/api-tokens",
			response: `{"items":[` + tokenJSON + `],"next_page":null}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.APITokens.List(ctx, kittycad.APITokenListParams{PageParams: kittycad.PageParams{
					Limit:  kittycad.Int(10),
					SortBy: kittycad.F(kittycad.CreatedAtSortModeCreatedAtDescending),
				}})
			},
			wantQuery: url.Values{"limit": {"10"}, "sort_by": {"created_at_descending"}},
		},
		{
			name:     "api call metrics",
			method:   http.MethodGet,
			route:    "/api-call-metrics",
			response: `[{"count":3,"query":"/ping"}]`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.APICalls.GetMetrics(ctx, kittycad.APICallGetMetricsParams{GroupBy: kittycad.F(kittycad.APICallQueryGroupByEndpoint)})
			},
			wantQuery: url.Values{"group_by": {"endpoint"}},
			check: func(t *testing.T, res any) {
				groups := res.([]kittycad.APICallQueryGroup)
				require.Len(t, groups, 1)
				assert.Equal(t, int64(3), groups[0].Count)
			},
		},
		{
			name:     "api call for user",
			method:   http.MethodGet,
			route:    "/user/api-calls/:id",
			response: apiCallJSON,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.APICalls.GetForUser(ctx, "6b0b9c5e-0000-4000-8000-000000000004")
			},
			wantPath: "/user/api-calls/6b0b9c5e-0000-4000-8000-000000000004",
			check: func(t *testing.T, res any) {
				assert.Equal(t, "/ping", res.(*kittycad.APICallWithPrice).Endpoint)
			},
		},
		{
			name:     "get org",
			method:   http.MethodGet,
			route:    "/org",
			response: orgJSON,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Orgs.Get(ctx)
			},
			check: func(t *testing.T, res any) {
				assert.Equal(t, "engines.example", res.(*kittycad.Org).Domain)
			},
		},
		{
			name:     "new org",
			method:   http.MethodPost,
			route:    "/org",
			response: orgJSON,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Orgs.New(ctx, kittycad.OrgDetailsParams{Name: kittycad.F("Analytical Engines")})
			},
			wantBody: `{"name":"Analytical Engines"}`,
		},
		{
			name:     "list org members by role",
			method:   http.MethodGet,
			route:    "/org/members",
			response: `{"items":[` + memberJSON + `]}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Orgs.ListMembers(ctx, kittycad.OrgListMembersParams{Role: kittycad.F(kittycad.OrgRoleAdmin)})
			},
			wantQuery: url.Values{"role": {"admin"}},
			check: func(t *testing.T, res any) {
				assert.Equal(t, kittycad.OrgRoleAdmin, res.(*pagination.ResultsPage[kittycad.OrgMember]).Items[0].Role)
			},
		},
		{
			name:     "org member",
			method:   http.MethodGet,
			route:    "/org/members/:user_id",
			response: memberJSON,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Orgs.GetMember(ctx, "6b0b9c5e-0000-4000-8000-000000000001")
			},
			wantPath: "/org/members/6b0b9c5e-0000-4000-8000-000000000001",
		},
		{
			name:     "payment information",
			method:   http.MethodPut,
			route:    "/user/payment",
			response: custJSON,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Payments.UpdateInformation(ctx, kittycad.BillingInfoParams{
					Name:    kittycad.F("Ada"),
					Address: kittycad.F(kittycad.AddressDetails{City: "London", Country: "GB"}),
				})
			},
			wantBody: `{"address":{"city":"London","country":"GB","state":"","street1":"","street2":"","zip":""},"name":"Ada"}`,
			check: func(t *testing.T, res any) {
				assert.Equal(t, 12.5, res.(*kittycad.Customer).Balance)
			},
		},
		{
			name:     "balance",
			method:   http.MethodGet,
			route:    "/user/payment/balance",
			response: `{"id":"6b0b9c5e-0000-4000-8000-000000000007","map_id":"6b0b9c5e-0000-4000-8000-000000000001","monthly_credits_remaining":20,"total_due":0}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Payments.GetBalance(ctx)
			},
			check: func(t *testing.T, res any) {
				assert.Equal(t, float64(20), res.(*kittycad.CustomerBalance).MonthlyCreditsRemaining)
			},
		},
		{
			name:     "invoices",
			method:   http.MethodGet,
			route:    "/user/payment/invoices",
			response: `[{"id":"in_1","status":"paid","total":40,"lines":[{"id":"li_1","amount":40}]}]`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Payments.ListInvoices(ctx)
			},
			check: func(t *testing.T, res any) {
				invoices := res.([]kittycad.Invoice)
				require.Len(t, invoices, 1)
				assert.Equal(t, kittycad.InvoiceStatusPaid, invoices[0].Status)
				assert.Len(t, invoices[0].Lines, 1)
			},
		},
		{
			name:     "payment methods",
			method:   http.MethodGet,
			route:    "/user/payment/methods",
			response: `[{"id":"pm_1","type":"card","card":{"brand":"visa","last4":"4242","exp_month":4,"exp_year":2030}}]`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.Payments.ListMethods(ctx)
			},
			check: func(t *testing.T, res any) {
				methods := res.([]kittycad.PaymentMethod)
				require.Len(t, methods, 1)
				assert.Equal(t, "4242", methods[0].Card.Last4)
			},
		},
		{
			name:     "text to cad",
			method:   http.MethodPost,
			route:    "/ai/text-to-cad/:format",
			response: `{"id":"6b0b9c5e-0000-4000-8000-000000000008","type":"text_to_cad","status":"queued","prompt":"a gear","output_format":"step"}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.ML.NewTextToCAD(ctx, kittycad.FileExportFormatStep, kittycad.MLNewTextToCADParams{
					Prompt: kittycad.F("a gear"),
					Kcl:    kittycad.F(true),
				})
			},
			wantPath:  "/ai/text-to-cad/step",
			wantQuery: url.Values{"kcl": {"true"}},
			wantBody:  `{"prompt":"a gear"}`,
			check: func(t *testing.T, res any) {
				ttc := res.(*kittycad.TextToCAD)
				assert.Equal(t, kittycad.ApiCallStatusQueued, ttc.Status)
				assert.Equal(t, "a gear", ttc.Prompt)
			},
		},
		{
			name:   "text to cad feedback",
			method: http.MethodPost,
			route:  "/user/text-to-cad/:id",
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return nil, c.ML.NewTextToCADFeedback(ctx, "6b0b9c5e-0000-4000-8000-000000000008", kittycad.MLNewTextToCADFeedbackParams{
					Feedback: kittycad.F(kittycad.MLFeedbackThumbsUp),
				})
			},
			wantPath:  "/user/text-to-cad/6b0b9c5e-0000-4000-8000-000000000008",
			wantQuery: url.Values{"feedback": {"thumbs_up"}},
		},
		{
			name:     "prompt",
			method:   http.MethodGet,
			route:    "/ml-prompts/:id",
			response: `{"id":"6b0b9c5e-0000-4000-8000-000000000009","prompt":"a bracket","type":"text_to_cad","status":"completed"}`,
			call: func(ctx context.Context, c *kittycad.Client) (any, error) {
				return c.ML.GetPrompt(ctx, "6b0b9c5e-0000-4000-8000-000000000009")
			},
			wantPath: "/ml-prompts/6b0b9c5e-0000-4000-8000-000000000009",
			check: func(t *testing.T, res any) {
				assert.Equal(t, "a bracket", res.(*kittycad.MLPrompt).Prompt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := testutil.NewFakeAPI(t)
			status := http.StatusOK
			if tt.response == "" {
				status = http.StatusNoContent
			}
			f.Add(tt.method, tt.route, testutil.JSON(status, tt.response))

			res, err := tt.call(context.Background(), newTestClient(t, f))
			require.NoError(t, err)

			req := f.Last(t)
			assert.Equal(t, tt.method, req.Method)
			wantPath := tt.wantPath
			if wantPath == "" {
				wantPath = tt.route
			}
			assert.Equal(t, wantPath, req.Path)
			if tt.wantQuery != nil {
				assert.Equal(t, tt.wantQuery, req.Query)
			}
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, string(req.Body))
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			}
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestServiceDeletes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		route    string
		wantPath string
		call     func(ctx context.Context, c *kittycad.Client) error
	}{
		{"user", "/user", "/user", func(ctx context.Context, c *kittycad.Client) error {
			return c.Users.DeleteSelf(ctx)
		}},
		{"api token", "/user/api-tokens/:token", "/user/api-tokens/tok-1", func(ctx context.Context, c *kittycad.Client) error {
			return c.APITokens.Delete(ctx, "tok-1")
		}},
		{"org", "/org", "/org", func(ctx context.Context, c *kittycad.Client) error {
			return c.Orgs.Delete(ctx)
		}},
		{"payment information", "/user/payment", "/user/payment", func(ctx context.Context, c *kittycad.Client) error {
			return c.Payments.DeleteInformation(ctx)
		}},
		{"payment method", "/user/payment/methods/:id", "/user/payment/methods/pm_1", func(ctx context.Context, c *kittycad.Client) error {
			return c.Payments.DeleteMethod(ctx, "pm_1")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := testutil.NewFakeAPI(t)
			f.DELETE(tt.route, testutil.JSON(http.StatusNoContent, ""))
			require.NoError(t, tt.call(context.Background(), newTestClient(t, f)))
			assert.Equal(t, tt.wantPath, f.Last(t).Path)
		})
	}
}

// TestMissingPathParameters never reaches the network: the client points at a
// closed port.
func TestMissingPathParameters(t *testing.T) {
	t.Parallel()

	client := kittycad.NewClient(option.WithBaseURL("http://127.0.0.1:1"))
	ctx := context.Background()
	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"user id", func() error { _, err := client.Users.Get(ctx, ""); return err }, "missing required id parameter"},
		{"session token", func() error { _, err := client.Users.GetSession(ctx, ""); return err }, "missing required token parameter"},
		{"api token", func() error { _, err := client.APITokens.Get(ctx, ""); return err }, "missing required token parameter"},
		{"api call", func() error { _, err := client.APICalls.Get(ctx, ""); return err }, "missing required id parameter"},
		{"async operation", func() error { _, err := client.AsyncOperations.Get(ctx, ""); return err }, "missing required id parameter"},
		{"conversion source", func() error {
			_, err := client.File.NewConversion(ctx, "", kittycad.FileExportFormatStl, kittycad.FileNewConversionParams{})
			return err
		}, "missing required src_format parameter"},
		{"conversion output", func() error {
			_, err := client.File.NewConversion(ctx, kittycad.FileImportFormatStep, "", kittycad.FileNewConversionParams{})
			return err
		}, "missing required output_format parameter"},
		{"executor language", func() error {
			_, err := client.Executor.NewFileExecution(ctx, "", kittycad.ExecutorNewFileExecutionParams{})
			return err
		}, "missing required lang parameter"},
		{"text to cad", func() error { _, err := client.ML.GetTextToCADForUser(ctx, ""); return err }, "missing required id parameter"},
		{"org member", func() error { _, err := client.Orgs.GetMember(ctx, ""); return err }, "missing required user_id parameter"},
		{"payment method", func() error { return client.Payments.DeleteMethod(ctx, "") }, "missing required id parameter"},
		{"unit", func() error {
			_, err := client.Unit.GetLengthConversion(ctx, "", kittycad.UnitLengthM, kittycad.UnitConversionParams{})
			return err
		}, "missing required input_unit parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.EqualError(t, tt.call(), tt.want)
		})
	}
}

func TestAutoPagingAcrossService(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/users", func(c echo.Context) error {
		switch c.QueryParam("page_token") {
		case "":
			return c.JSONBlob(http.StatusOK, []byte(`{"items":[{"id":"6b0b9c5e-0000-4000-8000-000000000001"}],"next_page":"p2"}`))
		case "p2":
			return c.JSONBlob(http.StatusOK, []byte(`{"items":[{"id":"6b0b9c5e-0000-4000-8000-000000000002"}],"next_page":null}`))
		}
		return c.NoContent(http.StatusBadRequest)
	})

	client := newTestClient(t, f)
	var ids []uuid.UUID
	for user, err := range client.Users.ListAutoPaging(context.Background(), kittycad.UserListParams{PageParams: kittycad.PageParams{Limit: kittycad.Int(1)}}).All() {
		require.NoError(t, err)
		ids = append(ids, user.ID)
	}
	assert.Equal(t, []uuid.UUID{
		uuid.MustParse("6b0b9c5e-0000-4000-8000-000000000001"),
		uuid.MustParse("6b0b9c5e-0000-4000-8000-000000000002"),
	}, ids)

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "1", reqs[1].Query.Get("limit"))
	assert.Equal(t, "p2", reqs[1].Query.Get("page_token"))
	assert.Equal(t, "Bearer test-token", reqs[1].Header.Get("Authorization"))
}
