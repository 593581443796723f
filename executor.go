package kittycad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/kittycad/kittycad-go/internal/apiquery"
	"github.com/kittycad/kittycad-go/internal/param"
	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
	"github.com/kittycad/kittycad-go/packages/wsconn"
)

// ExecutorService contains methods and other services that help with interacting
// with the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewExecutorService] method instead.
type ExecutorService struct {
	Options []option.RequestOption
}

// NewExecutorService generates a new service that applies the given options to
// each request. These options are applied after the parent client's options (if
// there is one), and before any request-specific options.
func NewExecutorService(opts ...option.RequestOption) (r *ExecutorService) {
	r = &ExecutorService{}
	r.Options = opts
	return
}

// Execute a source file in the given language and return what it printed and
// the files it wrote.
func (r *ExecutorService) NewFileExecution(ctx context.Context, lang CodeLanguage, params ExecutorNewFileExecutionParams, opts ...option.RequestOption) (res *CodeOutput, err error) {
	opts = slices.Concat(r.Options, opts)
	if lang == "" {
		err = errors.New("missing required lang parameter")
		return
	}
	path := fmt.Sprintf("file/execute/%s", url.PathEscape(string(lang)))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, &res, opts...)
	return
}

// Create a terminal. The connection relays the terminal byte for byte; nothing
// is interpreted on the way.
func (r *ExecutorService) CreateTerm(ctx context.Context, opts ...option.RequestOption) (res *wsconn.Conn, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "ws/executor/term"
	return wsconn.Dial(ctx, path, nil, opts...)
}

// The language code is written in.
type CodeLanguage string

const (
	CodeLanguageGo     CodeLanguage = "go"
	CodeLanguagePython CodeLanguage = "python"
	CodeLanguageNode   CodeLanguage = "node"
)

func (r CodeLanguage) IsKnown() bool {
	switch r {
	case CodeLanguageGo, CodeLanguagePython, CodeLanguageNode:
		return true
	}
	return false
}

// Output of the code being executed.
type CodeOutput struct {
	// The contents of the files requested if they were passed.
	OutputFiles []OutputFile `json:"output_files"`
	// The stderr of the code.
	Stderr string `json:"stderr"`
	// The stdout of the code.
	Stdout string `json:"stdout"`
}

// Output file contents.
type OutputFile struct {
	// The contents of the file. This is base64 encoded so we can ensure it is
	// UTF-8 for JSON.
	Contents Base64Data `json:"contents"`
	// The name of the file.
	Name string `json:"name"`
}

type ExecutorNewFileExecutionParams struct {
	FileBody
	// The name of the file the code writes, to be returned in OutputFiles.
	Output param.Field[string] `query:"output"`
}

// URLQuery serializes [ExecutorNewFileExecutionParams]'s query parameters as
// `url.Values`.
func (r ExecutorNewFileExecutionParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}
