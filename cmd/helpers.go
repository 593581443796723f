package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/paths"
	"github.com/kittycad/kittycad-go/packages/pagination"
)

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

type pageFlags struct {
	limit int64
	all   bool
	sort  string
	token string
}

func addPageFlags(cmd *cobra.Command, p *pageFlags) {
	cmd.Flags().Int64Var(&p.limit, "limit", 20, "Items per page")
	cmd.Flags().BoolVar(&p.all, "all", false, "Fetch every page")
	cmd.Flags().StringVar(&p.sort, "sort", "", "Sort order (created_at_ascending, created_at_descending)")
	cmd.Flags().StringVar(&p.token, "page-token", "", "Continue from this page token")
}

func (p pageFlags) params() (kittycad.PageParams, error) {
	var params kittycad.PageParams
	if p.limit > 0 {
		params.Limit = kittycad.F(p.limit)
	}
	if p.sort != "" {
		mode := kittycad.CreatedAtSortMode(p.sort)
		if !mode.IsKnown() {
			return params, fmt.Errorf("unknown sort order %q", p.sort)
		}
		params.SortBy = kittycad.F(mode)
	}
	if p.token != "" {
		params.PageToken = kittycad.F(p.token)
	}
	return params, nil
}

// collect returns one page, or every page with --all. The next page token of
// a single page is logged so the listing can be continued.
func collect[T any](a *app, p pageFlags, page func() (*pagination.ResultsPage[T], error), auto func() *pagination.ResultsPageAutoPager[T]) ([]T, error) {
	if p.all {
		var items []T
		for item, err := range auto().All() {
			if err != nil {
				return items, err
			}
			items = append(items, item)
		}
		return items, nil
	}
	res, err := page()
	if err != nil {
		return nil, err
	}
	if res.NextPage != "" {
		a.log.Info("more results available", "page_token", res.NextPage)
	}
	return res.Items, nil
}

func (a *app) outputDir(dir string) string {
	if dir != "" {
		return dir
	}
	return paths.Outputs(a.cfg.DataDir)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.DateTime)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
