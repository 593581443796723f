package kittycad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kittycad/kittycad-go/internal/param"
	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
)

// PaymentService contains methods and other services that help with interacting
// with the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewPaymentService] method instead.
type PaymentService struct {
	Options []option.RequestOption
}

// NewPaymentService generates a new service that applies the given options to
// each request. These options are applied after the parent client's options (if
// there is one), and before any request-specific options.
func NewPaymentService(opts ...option.RequestOption) (r *PaymentService) {
	r = &PaymentService{}
	r.Options = opts
	return
}

// Get payment info about your user.
func (r *PaymentService) GetInformation(ctx context.Context, opts ...option.RequestOption) (res *Customer, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/payment"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Create payment info for your user.
func (r *PaymentService) NewInformation(ctx context.Context, body BillingInfoParams, opts ...option.RequestOption) (res *Customer, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/payment"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &res, opts...)
	return
}

// Update payment info for your user.
func (r *PaymentService) UpdateInformation(ctx context.Context, body BillingInfoParams, opts ...option.RequestOption) (res *Customer, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/payment"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPut, path, body, &res, opts...)
	return
}

// Delete payment info for your user.
func (r *PaymentService) DeleteInformation(ctx context.Context, opts ...option.RequestOption) (err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/payment"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, path, nil, nil, opts...)
	return
}

// Get balance for your user.
func (r *PaymentService) GetBalance(ctx context.Context, opts ...option.RequestOption) (res *CustomerBalance, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/payment/balance"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// List invoices for your user.
func (r *PaymentService) ListInvoices(ctx context.Context, opts ...option.RequestOption) (res []Invoice, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/payment/invoices"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// List payment methods for your user.
func (r *PaymentService) ListMethods(ctx context.Context, opts ...option.RequestOption) (res []PaymentMethod, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/payment/methods"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Delete a payment method for your user.
func (r *PaymentService) DeleteMethod(ctx context.Context, id string, opts ...option.RequestOption) (err error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		err = errors.New("missing required id parameter")
		return
	}
	path := fmt.Sprintf("user/payment/methods/%s", url.PathEscape(id))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, path, nil, nil, opts...)
	return
}

// Address details.
type AddressDetails struct {
	// The city component.
	City string `json:"city"`
	// The country component. This is a two-letter ISO country code.
	Country string `json:"country"`
	// The state component.
	State string `json:"state"`
	// The first street component.
	Street1 string `json:"street1"`
	// The second street component.
	Street2 string `json:"street2"`
	// The zip component.
	Zip string `json:"zip"`
}

// The billing information for payments.
type BillingInfo struct {
	// The address of the customer.
	Address *AddressDetails `json:"address"`
	// The name of the customer.
	Name string `json:"name"`
	// The phone for the customer.
	Phone string `json:"phone"`
}

type BillingInfoParams struct {
	// The address of the customer.
	Address param.Field[AddressDetails] `json:"address,omitzero"`
	// The name of the customer.
	Name param.Field[string] `json:"name,omitzero"`
	// The phone for the customer.
	Phone param.Field[string] `json:"phone,omitzero"`
}

// The resource representing a Stripe customer.
type Customer struct {
	// Unique identifier for the object.
	ID string `json:"id"`
	// The customer's address.
	Address *AddressDetails `json:"address"`
	// Current balance, if any, being stored on the customer in the payments
	// service.
	Balance float64 `json:"balance"`
	// Time at which the object was created.
	CreatedAt time.Time `json:"created_at"`
	// Three-letter ISO code for the currency the customer can be charged in for
	// recurring billing purposes.
	Currency string `json:"currency"`
	// When the customer's latest invoice is billed by charging automatically,
	// `delinquent` is `true` if the invoice's latest charge failed.
	Delinquent bool `json:"delinquent"`
	// The customer's email address.
	Email string `json:"email"`
	// Set of key-value pairs.
	Metadata map[string]string `json:"metadata"`
	// The customer's full name or business name.
	Name string `json:"name"`
	// The customer's phone number.
	Phone string `json:"phone"`
}

// A balance for a customer.
type CustomerBalance struct {
	// The unique identifier for the balance.
	ID uuid.UUID `json:"id"`
	// The mapping id of the user or org.
	MapID uuid.UUID `json:"map_id"`
	// The enterprise price for the Modeling App subscription, if they are on the
	// enterprise plan.
	ModelingAppEnterprisePrice *float64 `json:"modeling_app_enterprise_price"`
	// The number of monthly API credits remaining in the balance.
	MonthlyCreditsRemaining float64 `json:"monthly_credits_remaining"`
	// The amount of pre-pay cash remaining in the balance.
	PrePayCashRemaining float64 `json:"pre_pay_cash_remaining"`
	// The amount of credits remaining in the balance.
	PrePayCreditsRemaining float64 `json:"pre_pay_credits_remaining"`
	// The amount of money owed.
	TotalDue  float64   `json:"total_due"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// The status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
	InvoiceStatusVoid          InvoiceStatus = "void"
)

func (r InvoiceStatus) IsKnown() bool {
	switch r {
	case InvoiceStatusDraft, InvoiceStatusOpen, InvoiceStatusPaid, InvoiceStatusUncollectible, InvoiceStatusVoid:
		return true
	}
	return false
}

// An invoice.
type Invoice struct {
	// Unique identifier for the object.
	ID string `json:"id"`
	// Final amount due at this time for this invoice.
	AmountDue float64 `json:"amount_due"`
	// The amount, in USD, that was paid.
	AmountPaid float64 `json:"amount_paid"`
	// The amount remaining, in USD, that is due.
	AmountRemaining float64 `json:"amount_remaining"`
	// Number of payment attempts made for this invoice.
	AttemptCount int64 `json:"attempt_count"`
	// Whether an attempt has been made to pay the invoice.
	Attempted bool `json:"attempted"`
	// Time at which the object was created.
	CreatedAt time.Time `json:"created_at"`
	// Three-letter ISO code for the currency.
	Currency string `json:"currency"`
	// The email address for the customer.
	CustomerEmail string `json:"customer_email"`
	// Customer ID.
	CustomerID string `json:"customer_id"`
	// An arbitrary string attached to the object.
	Description string `json:"description"`
	// The individual line items that make up the invoice.
	Lines []InvoiceLineItem `json:"lines"`
	// Set of key-value pairs.
	Metadata map[string]string `json:"metadata"`
	// A unique, identifying string that appears on emails sent to the customer
	// for this invoice.
	Number string `json:"number"`
	// Whether payment was successfully collected for this invoice.
	Paid bool `json:"paid"`
	// The link to download the PDF for the invoice.
	Pdf string `json:"pdf"`
	// This is the transaction number that appears on email receipts sent for
	// this invoice.
	ReceiptNumber string `json:"receipt_number"`
	// The status of the invoice.
	Status InvoiceStatus `json:"status"`
	// Total of all subscriptions, invoice items, and prorations on the invoice
	// before any invoice level discount or tax is applied.
	Subtotal float64 `json:"subtotal"`
	// The amount of tax on this invoice.
	Tax float64 `json:"tax"`
	// Total after discounts and taxes.
	Total float64 `json:"total"`
	// The URL for the hosted invoice page.
	URL string `json:"url"`
}

// An invoice line item.
type InvoiceLineItem struct {
	// Unique identifier for the object.
	ID string `json:"id"`
	// The amount, in USD.
	Amount float64 `json:"amount"`
	// Three-letter ISO code for the currency.
	Currency string `json:"currency"`
	// The description.
	Description string `json:"description"`
	// The ID of the invoice item associated with this line item if any.
	InvoiceItem string `json:"invoice_item"`
	// Set of key-value pairs.
	Metadata map[string]string `json:"metadata"`
}

// The kind of a payment method.
type PaymentMethodType string

const (
	PaymentMethodTypeCard PaymentMethodType = "card"
)

func (r PaymentMethodType) IsKnown() bool {
	switch r {
	case PaymentMethodTypeCard:
		return true
	}
	return false
}

// A payment method.
type PaymentMethod struct {
	// Unique identifier for the object.
	ID string `json:"id"`
	// The billing info for the payment method.
	BillingInfo BillingInfo `json:"billing_info"`
	// The card, if it is one. For our purposes, this is the only type of payment
	// method that we support.
	Card *CardDetails `json:"card"`
	// Time at which the object was created.
	CreatedAt time.Time `json:"created_at"`
	// Set of key-value pairs.
	Metadata map[string]string `json:"metadata"`
	// The type of payment method.
	Type PaymentMethodType `json:"type"`
}

// The card details of a payment method.
type CardDetails struct {
	// Card brand. Can be `amex`, `diners`, `discover`, `jcb`, `mastercard`,
	// `unionpay`, `visa`, or `unknown`.
	Brand string `json:"brand"`
	// Two-letter ISO code representing the country of the card.
	Country string `json:"country"`
	// Two-digit number representing the card's expiration month.
	ExpMonth int64 `json:"exp_month"`
	// Four-digit number representing the card's expiration year.
	ExpYear int64 `json:"exp_year"`
	// Uniquely identifies this particular card number.
	Fingerprint string `json:"fingerprint"`
	// Card funding type. Can be `credit`, `debit`, `prepaid`, or `unknown`.
	Funding string `json:"funding"`
	// The last four digits of the card.
	Last4 string `json:"last4"`
}
