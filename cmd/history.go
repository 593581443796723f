package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "The local log of submitted async jobs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the async jobs submitted from this machine, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := a.history(cmd.Context())
			if err != nil {
				return err
			}
			list, err := jobs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return a.out.Result(list, []string{"id", "kind", "status", "input", "output", "updated_at"}, func() [][]string {
				return jobRows(list)
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Number of jobs to show")
	cmd.AddCommand(list)
	return cmd
}

func jobRows(jobs []history.Job) [][]string {
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		status := string(j.Status)
		if j.Error != "" {
			status += ": " + j.Error
		}
		rows[i] = []string{j.ID, j.Kind, status, j.Input, j.Output, formatTime(j.UpdatedAt)}
	}
	return rows
}
