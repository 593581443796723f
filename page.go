package kittycad

import (
	"github.com/kittycad/kittycad-go/internal/param"
)

// PageParams are the query parameters every list endpoint accepts. They are
// embedded in each List params struct.
type PageParams struct {
	// Maximum number of items returned by a single call.
	Limit param.Field[int64] `query:"limit"`
	// Token returned by previous call to retrieve the subsequent page.
	PageToken param.Field[string]            `query:"page_token"`
	SortBy    param.Field[CreatedAtSortMode] `query:"sort_by"`
}
