package pagination

import (
	"iter"
	"net/http"

	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
)

// ResultsPage is one page of a list endpoint. The API answers every list call
// with the items and, when more remain, the token of the next page.
type ResultsPage[T any] struct {
	Items []T `json:"items"`
	// NextPage is passed back as page_token to fetch the following page. It is
	// empty on the last page.
	NextPage string `json:"next_page"`
	cfg      *requestconfig.RequestConfig
	res      *http.Response
	token    string
}

// GetNextPage returns the next page as defined by this pagination style. When
// there is no next page, this function will return a 'nil' for the page value,
// but will not return an error.
func (r *ResultsPage[T]) GetNextPage() (res *ResultsPage[T], err error) {
	if r == nil || r.NextPage == "" || r.cfg == nil {
		return nil, nil
	}
	// A server that hands back the token it was just given would otherwise keep
	// the pager spinning on the same page.
	if r.token != "" && r.NextPage == r.token {
		return nil, nil
	}
	cfg := r.cfg.Clone(r.cfg.Context)
	if err = cfg.Apply(option.WithQuery("page_token", r.NextPage)); err != nil {
		return nil, err
	}
	var raw *http.Response
	cfg.ResponseInto = &raw
	cfg.ResponseBodyInto = &res
	if err = cfg.Execute(); err != nil {
		return nil, err
	}
	if res == nil {
		res = &ResultsPage[T]{}
	}
	res.SetPageConfig(cfg, raw)
	res.token = r.NextPage
	return res, nil
}

// SetPageConfig remembers the request that produced this page.
func (r *ResultsPage[T]) SetPageConfig(cfg *requestconfig.RequestConfig, res *http.Response) {
	if r == nil {
		return
	}
	r.cfg = cfg
	r.res = res
	if cfg != nil {
		r.token = cfg.Request.URL.Query().Get("page_token")
	}
}

// Response returns the HTTP response of the page request.
func (r *ResultsPage[T]) Response() *http.Response {
	return r.res
}

// ResultsPageAutoPager walks every item of a list endpoint, fetching pages as
// it goes.
type ResultsPageAutoPager[T any] struct {
	page *ResultsPage[T]
	cur  T
	idx  int
	run  int
	err  error
}

// NewResultsPageAutoPager wraps the first page of a list call. It is usually fed
// the two return values of a List method directly.
func NewResultsPageAutoPager[T any](page *ResultsPage[T], err error) *ResultsPageAutoPager[T] {
	return &ResultsPageAutoPager[T]{
		page: page,
		err:  err,
	}
}

// Next advances to the next item. It returns false once every page is
// exhausted or a request failed; check [ResultsPageAutoPager.Err] afterwards.
func (r *ResultsPageAutoPager[T]) Next() bool {
	if r.err != nil {
		return false
	}
	for r.page != nil && r.idx >= len(r.page.Items) {
		r.page, r.err = r.page.GetNextPage()
		r.idx = 0
		if r.err != nil {
			return false
		}
	}
	if r.page == nil {
		return false
	}
	r.cur = r.page.Items[r.idx]
	r.run += 1
	r.idx += 1
	return true
}

// Current returns the item Next moved to.
func (r *ResultsPageAutoPager[T]) Current() T {
	return r.cur
}

func (r *ResultsPageAutoPager[T]) Err() error {
	return r.err
}

// Index returns the zero based position of Current across all pages.
func (r *ResultsPageAutoPager[T]) Index() int {
	return r.run - 1
}

// All iterates the remaining items. A failed page request is yielded once with
// the zero value, and iteration ends.
func (r *ResultsPageAutoPager[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for r.Next() {
			if !yield(r.Current(), nil) {
				return
			}
		}
		if r.err != nil {
			var zero T
			yield(zero, r.err)
		}
	}
}
