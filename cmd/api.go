package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marcozac/go-jsonc"
	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go/internal/schema"
	"github.com/kittycad/kittycad-go/option"
)

func newAPICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Explore and call any API operation",
	}

	var tag string
	operations := &cobra.Command{
		Use:   "operations",
		Short: "List the operations in the API's OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadSchema(cmd)
			if err != nil {
				return err
			}
			var ops []schema.Operation
			for _, op := range doc.Operations() {
				if tag == "" || containsFold(op.Tags, tag) {
					ops = append(ops, op)
				}
			}
			return a.out.Result(ops, []string{"operation_id", "method", "path", "summary"}, func() [][]string {
				rows := make([][]string, len(ops))
				for i, op := range ops {
					rows[i] = []string{op.ID, op.Method, "/" + strings.TrimPrefix(op.Path, "/"), op.Summary}
				}
				return rows
			})
		},
	}
	operations.Flags().StringVar(&tag, "tag", "", "Only operations with this tag")

	var (
		params map[string]string
		input  string
	)
	call := &cobra.Command{
		Use:   "call <operation-id>",
		Short: "Call an operation by its id",
		Long: `Call an operation by its OpenAPI operation id. Path and query parameters are
given with --param name=value. A JSON body, comments allowed, is read from the
--input file, or stdin with "-".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadSchema(cmd)
			if err != nil {
				return err
			}
			op, ok := doc.Find(args[0])
			if !ok {
				return fmt.Errorf("unknown operation %q", args[0])
			}
			pathParams, query := op.SplitParams(params)
			path, err := op.BuildPath(pathParams)
			if err != nil {
				return err
			}

			var body any
			if input != "" {
				raw, err := a.readBody(input)
				if err != nil {
					return err
				}
				body = raw
			} else if op.HasBody {
				a.log.Warn("operation takes a body but no --input was given", "operation", op.ID)
			}

			opts := make([]option.RequestOption, 0, len(query))
			for k := range query {
				opts = append(opts, option.WithQuery(k, query.Get(k)))
			}
			var res json.RawMessage
			if err := a.client.Execute(cmd.Context(), op.Method, path, body, &res, opts...); err != nil {
				return err
			}
			if len(res) == 0 {
				return nil
			}
			return a.out.JSON(res)
		},
	}
	call.Flags().StringToStringVarP(&params, "param", "p", nil, "Path or query parameter, name=value (repeatable)")
	call.Flags().StringVar(&input, "input", "", "File with the JSON request body, or - for stdin")

	cmd.AddCommand(operations, call)
	return cmd
}

func (a *app) loadSchema(cmd *cobra.Command) (*schema.Document, error) {
	data, err := a.client.Meta.GetSchema(cmd.Context())
	if err != nil {
		return nil, err
	}
	return schema.Load(data)
}

// readBody reads a JSON body from path, or stdin for "-". Comments are
// stripped; trailing commas are rejected.
func (a *app) readBody(path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.input())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var v any
	if err := jsonc.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return json.Marshal(v)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
