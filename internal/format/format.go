package format

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// OutputFormat is how a command prints its result.
type OutputFormat string

const (
	// TextFormat renders tables and plain strings (default)
	TextFormat OutputFormat = "text"

	// JSONFormat prints the API value as indented JSON
	JSONFormat OutputFormat = "json"
)

// Formats lists every accepted output format, in flag help order.
var Formats = []OutputFormat{TextFormat, JSONFormat}

// ErrUnsupported is returned by Parse for a value outside Formats.
type ErrUnsupported struct {
	Value string
}

func (e ErrUnsupported) Error() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return fmt.Sprintf("unsupported output format %q (want %s)", e.Value, strings.Join(names, " or "))
}

// Parse reads a flag or config value. Case and surrounding space are ignored
// and the empty string means TextFormat.
func Parse(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return TextFormat, nil
	}
	if !f.IsValid() {
		return "", ErrUnsupported{Value: s}
	}
	return f, nil
}

func (f OutputFormat) IsValid() bool {
	return slices.Contains(Formats, f)
}

func (f OutputFormat) String() string {
	return string(f)
}

// message is the JSON form of a plain text result.
type message struct {
	Message string `json:"message"`
}

// Render returns content as f prints it. JSONFormat wraps it as
// {"message": content} so scripts always read an object.
func (f OutputFormat) Render(content string) (string, error) {
	switch f {
	case TextFormat:
		return content, nil
	case JSONFormat:
		data, err := json.MarshalIndent(message{Message: content}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data), nil
	default:
		return "", ErrUnsupported{Value: string(f)}
	}
}
