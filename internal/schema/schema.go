// Package schema reads the API's own OpenAPI document, as served by GET /, so
// the CLI can list operations and call ones the SDK has no method for.
package schema

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

type Document struct {
	doc *openapi3.T
}

// Operation is the part of an OpenAPI operation a caller needs.
type Operation struct {
	ID          string   `json:"operation_id"`
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Summary     string   `json:"summary,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PathParams  []string `json:"path_params,omitempty"`
	QueryParams []string `json:"query_params,omitempty"`
	HasBody     bool     `json:"has_body"`
	Deprecated  bool     `json:"deprecated,omitempty"`
}

// Load parses an OpenAPI 3 document. External references are not followed.
func Load(data []byte) (*Document, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Validate checks the document against the OpenAPI 3 rules.
func (d *Document) Validate(ctx context.Context) error {
	return d.doc.Validate(ctx)
}

func (d *Document) Title() string {
	if d.doc.Info == nil {
		return ""
	}
	return d.doc.Info.Title
}

func (d *Document) Version() string {
	if d.doc.Info == nil {
		return ""
	}
	return d.doc.Info.Version
}

// Operations lists every operation ordered by path, then method.
func (d *Document) Operations() []Operation {
	if d.doc.Paths == nil {
		return nil
	}
	var ops []Operation
	for path, item := range d.doc.Paths.Map() {
		for method, op := range item.Operations() {
			ops = append(ops, newOperation(path, method, item, op))
		}
	}
	slices.SortFunc(ops, func(a, b Operation) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return ops
}

// Find looks an operation up by its operationId.
func (d *Document) Find(id string) (Operation, bool) {
	for _, op := range d.Operations() {
		if op.ID == id {
			return op, true
		}
	}
	return Operation{}, false
}

func newOperation(path, method string, item *openapi3.PathItem, op *openapi3.Operation) Operation {
	out := Operation{
		ID:         op.OperationID,
		Method:     strings.ToUpper(method),
		Path:       path,
		Summary:    op.Summary,
		Tags:       op.Tags,
		HasBody:    op.RequestBody != nil,
		Deprecated: op.Deprecated,
	}
	seen := map[string]bool{}
	// Operation parameters override the path item's.
	for _, params := range []openapi3.Parameters{op.Parameters, item.Parameters} {
		for _, ref := range params {
			p := ref.Value
			if p == nil || seen[p.In+":"+p.Name] {
				continue
			}
			seen[p.In+":"+p.Name] = true
			switch p.In {
			case openapi3.ParameterInPath:
				out.PathParams = append(out.PathParams, p.Name)
			case openapi3.ParameterInQuery:
				out.QueryParams = append(out.QueryParams, p.Name)
			}
		}
	}
	return out
}

var templateParam = regexp.MustCompile(`\{([^}]+)\}`)

// BuildPath fills the path template from params and returns it relative to
// the API root, ready for a request. Values are path escaped.
func (op Operation) BuildPath(params map[string]string) (string, error) {
	var missing string
	path := templateParam.ReplaceAllStringFunc(op.Path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok || v == "" {
			if missing == "" {
				missing = name
			}
			return m
		}
		return url.PathEscape(v)
	})
	if missing != "" {
		return "", fmt.Errorf("missing required %s parameter", missing)
	}
	return strings.TrimPrefix(path, "/"), nil
}

// SplitParams separates params into those the path template consumes and the
// rest, which are sent as the query.
func (op Operation) SplitParams(params map[string]string) (path map[string]string, query url.Values) {
	path = map[string]string{}
	query = url.Values{}
	for k, v := range params {
		if slices.Contains(op.PathParams, k) {
			path[k] = v
		} else {
			query.Set(k, v)
		}
	}
	return path, query
}
