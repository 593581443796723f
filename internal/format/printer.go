package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const markdownWidth = 100

// Printer writes command results to Out in Format. Styled enables colors and
// the terminal markdown theme; it is off when Out is not a terminal.
type Printer struct {
	Out    io.Writer
	Format OutputFormat
	Styled bool
}

func NewPrinter(w io.Writer, f OutputFormat, styled bool) *Printer {
	if !f.IsValid() {
		f = TextFormat
	}
	return &Printer{Out: w, Format: f, Styled: styled}
}

// JSON writes v indented, regardless of Format.
func (p *Printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(p.Out, string(data))
	return err
}

// Text writes a plain message, wrapped in an object in JSONFormat.
func (p *Printer) Text(s string) error {
	out, err := p.Format.Render(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Out, out)
	return err
}

// Result prints v as JSON in JSONFormat. In TextFormat it prints the table
// built by rows, or JSON when rows is nil.
func (p *Printer) Result(v any, headers []string, rows func() [][]string) error {
	if p.Format == JSONFormat || rows == nil {
		return p.JSON(v)
	}
	return p.Table(headers, rows())
}

// Table renders rows under headers. Header names are snake_case field names,
// shown title cased.
func (p *Printer) Table(headers []string, rows [][]string) error {
	title := cases.Title(language.English)
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = title.String(strings.ReplaceAll(h, "_", " "))
	}

	t := table.New().
		Headers(names...).
		Rows(rows...).
		Border(lipgloss.NormalBorder())
	if p.Styled {
		header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t = t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8")))
	} else {
		cell := lipgloss.NewStyle().Padding(0, 1)
		t = t.StyleFunc(func(int, int) lipgloss.Style { return cell })
	}
	_, err := fmt.Fprintln(p.Out, t.Render())
	return err
}

// Markdown renders md for the terminal. JSONFormat wraps the source text
// instead.
func (p *Printer) Markdown(md string) error {
	if p.Format == JSONFormat {
		return p.Text(md)
	}
	style := glamour.WithStandardStyle("notty")
	if p.Styled {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(markdownWidth))
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(p.Out, out)
	return err
}
