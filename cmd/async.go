package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/storage"
	"github.com/kittycad/kittycad-go/packages/pagination"
)

var asyncHeaders = []string{"id", "type", "status", "error", "created_at"}

func asyncRows(ops ...kittycad.AsyncAPICallOutput) [][]string {
	rows := make([][]string, len(ops))
	for i, op := range ops {
		info := op.Info()
		rows[i] = []string{info.ID.String(), string(info.Type), string(info.Status), info.Error, formatTime(info.CreatedAt)}
	}
	return rows
}

// saveOutputs writes the files a finished operation carries under dir/<id>/
// and returns that directory, or "" when there was nothing to write.
func (a *app) saveOutputs(ctx context.Context, op kittycad.AsyncAPICallOutput, dir string) (string, error) {
	files := map[string][]byte{}
	switch v := op.(type) {
	case kittycad.FileConversion:
		for name, data := range v.Outputs {
			files[name] = data
		}
	case kittycad.TextToCAD:
		for name, data := range v.Outputs {
			files[name] = data
		}
		if v.Code != "" {
			files["main.kcl"] = []byte(v.Code)
		}
	}
	if len(files) == 0 {
		return "", nil
	}

	store, err := storage.Open(a.outputDir(dir))
	if err != nil {
		return "", err
	}
	defer store.Close()
	id := op.Info().ID.String()
	for name, data := range files {
		path, err := store.WriteFile(ctx, data, id, name)
		if err != nil {
			return "", err
		}
		a.log.Info("saved output", "path", path)
	}
	return store.LocalPath(id), nil
}

func newAsyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "async",
		Aliases: []string{"operation"},
		Short:   "Follow async operations such as conversions and text-to-CAD",
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Get the status of an async operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := a.client.AsyncOperations.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Result(op, asyncHeaders, func() [][]string { return asyncRows(op) })
		},
	}

	var (
		interval time.Duration
		timeout  time.Duration
		outDir   string
	)
	wait := &cobra.Command{
		Use:   "wait <id>",
		Short: "Wait for an async operation to finish and save its outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			op, err := a.waitFor(ctx, args[0], interval)
			if op == nil {
				return err
			}
			saved := ""
			if err == nil {
				if saved, err = a.saveOutputs(ctx, op, outDir); err != nil {
					return err
				}
			}
			a.record(ctx, op.Info(), "", saved)
			if err != nil {
				return err
			}
			return a.out.Result(op, asyncHeaders, func() [][]string { return asyncRows(op) })
		},
	}
	wait.Flags().DurationVar(&interval, "interval", time.Second, "Time between two status checks")
	wait.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 waits forever)")
	wait.Flags().StringVar(&outDir, "out", "", "Directory for output files (default <data_dir>/outputs)")

	var (
		page   pageFlags
		status string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List async operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := page.params()
			if err != nil {
				return err
			}
			query := kittycad.AsyncOperationListParams{PageParams: params}
			if status != "" {
				s := kittycad.ApiCallStatus(status)
				if !s.IsKnown() {
					return fmt.Errorf("unknown status %q", status)
				}
				query.Status = kittycad.F(s)
			}
			items, err := collect(a, page,
				func() (*pagination.ResultsPage[kittycad.AsyncAPICallOutputEnvelope], error) {
					return a.client.AsyncOperations.List(cmd.Context(), query)
				},
				func() *pagination.ResultsPageAutoPager[kittycad.AsyncAPICallOutputEnvelope] {
					return a.client.AsyncOperations.ListAutoPaging(cmd.Context(), query)
				})
			if err != nil {
				return err
			}
			ops := make([]kittycad.AsyncAPICallOutput, len(items))
			for i, item := range items {
				ops[i] = item.AsUnion()
			}
			return a.out.Result(items, asyncHeaders, func() [][]string { return asyncRows(ops...) })
		},
	}
	addPageFlags(list, &page)
	list.Flags().StringVar(&status, "status", "", "Only operations in this status")

	cmd.AddCommand(get, wait, list)
	return cmd
}

// waitFor polls id until it finishes. A failed operation is returned together
// with its error.
func (a *app) waitFor(ctx context.Context, id string, interval time.Duration) (kittycad.AsyncAPICallOutput, error) {
	svc := *a.client.AsyncOperations
	if interval > 0 {
		svc.PollInterval = interval
	}
	op, err := svc.Wait(ctx, id)
	if err != nil && !errors.Is(err, kittycad.ErrOperationFailed) {
		return nil, err
	}
	return op, err
}
