package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/format"
	"github.com/kittycad/kittycad-go/internal/storage"
	"github.com/kittycad/kittycad-go/packages/wsconn"
)

func newExecCmd(a *app) *cobra.Command {
	var (
		output string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "exec <go|python|node> <file|->",
		Short: "Run a source file in the API's executor",
		Long: `Run a source file in the API's executor and print what it wrote.
With --output-file, the named file the code creates is downloaded to --out.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := kittycad.CodeLanguage(args[0])
			if !lang.IsKnown() {
				return fmt.Errorf("unknown language %q", args[0])
			}
			var src io.Reader = a.input()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			params := kittycad.ExecutorNewFileExecutionParams{FileBody: kittycad.FileBody{File: src}}
			if output != "" {
				params.Output = kittycad.F(output)
			}
			res, err := a.client.Executor.NewFileExecution(cmd.Context(), lang, params)
			if err != nil {
				return err
			}

			if len(res.OutputFiles) > 0 {
				store, err := storage.Open(a.outputDir(outDir))
				if err != nil {
					return err
				}
				defer store.Close()
				for _, file := range res.OutputFiles {
					path, err := store.WriteFile(cmd.Context(), file.Contents, file.Name)
					if err != nil {
						return err
					}
					a.log.Info("saved output", "path", path)
				}
			}

			if a.out.Format == format.JSONFormat {
				return a.out.JSON(res)
			}
			io.WriteString(a.stdout, res.Stdout)
			io.WriteString(a.stderr, res.Stderr)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output-file", "", "Name of a file the code writes, to download")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for downloaded files (default <data_dir>/outputs)")

	cmd.AddCommand(&cobra.Command{
		Use:   "term",
		Short: "Open a terminal in the executor, relaying stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.client.Executor.CreateTerm(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.CloseNow()
			return wsconn.Pipe(cmd.Context(), conn, a.input(), a.stdout, wsconn.MessageBinary)
		},
	})
	return cmd
}
