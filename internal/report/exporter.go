// Package report accumulates notebook outcomes and renders them as HTML and
// CSV tables.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/harrison/odc-colab/internal/models"
)

// Exporter renders a table of report rows into one output format.
type Exporter interface {
	Extension() string
	Export(table Table, rows []models.ReportRow, generated time.Time) ([]byte, error)
}

// CSVHeader is the header row of every CSV report.
var CSVHeader = []string{"notebook", "status", "error", "duration_seconds"}

// CSVExporter renders rows as comma-separated values.
type CSVExporter struct{}

// Extension returns "csv".
func (ce *CSVExporter) Extension() string { return "csv" }

// Export writes the header followed by one record per row.
func (ce *CSVExporter) Export(_ Table, rows []models.ReportRow, _ time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Notebook,
			string(row.Status),
			row.Detail,
			strconv.FormatFloat(row.Duration.Seconds(), 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row for %s: %w", row.Notebook, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// HTMLExporter renders rows as a styled standalone HTML page. The table is
// built as GitHub-flavoured Markdown and converted with goldmark.
type HTMLExporter struct {
	markdown goldmark.Markdown
}

// NewHTMLExporter creates an HTMLExporter. Raw HTML is enabled only for the
// markup the exporter emits itself; all row text is escaped first.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Extension returns "html".
func (he *HTMLExporter) Extension() string { return "html" }

// Export renders the page for table.
func (he *HTMLExporter) Export(table Table, rows []models.ReportRow, generated time.Time) ([]byte, error) {
	var body bytes.Buffer
	if err := he.markdown.Convert([]byte(markdownTable(table, rows, generated)), &body); err != nil {
		return nil, fmt.Errorf("render %s report: %w", table, err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", table.Title())
	page.WriteString(pageStyle)
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func markdownTable(table Table, rows []models.ReportRow, generated time.Time) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(table.Title())
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Generated %s, %d %s\n\n",
		generated.UTC().Format("2006-01-02 15:04:05 UTC"), len(rows), plural(len(rows), "notebook")))

	if len(rows) == 0 {
		sb.WriteString("No notebooks recorded.\n")
		return sb.String()
	}

	sb.WriteString("| Notebook | Status | Error |\n")
	sb.WriteString("| --- | --- | --- |\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | <span class=\"status status-%s\">%s</span> | %s |\n",
			escapeCell(row.Notebook),
			strings.ToLower(string(row.Status)),
			escapeCell(string(row.Status)),
			escapeCell(row.Detail)))
	}
	return sb.String()
}

// escapeCell makes s safe as Markdown table cell text: every ASCII
// punctuation character is backslash-escaped and line breaks become <br>.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '\n':
			sb.WriteString("<br>")
		case r < 0x80 && isASCIIPunct(byte(r)):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') ||
		(c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

const pageStyle = `<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2em; color: #24292f; }
h1 { font-size: 1.5em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #d0d7de; padding: 6px 12px; text-align: left; vertical-align: top; }
th { background: #f6f8fa; }
td:last-child { font-family: SFMono-Regular, Consolas, monospace; font-size: 0.85em; white-space: pre-wrap; }
.status { font-weight: 600; padding: 2px 8px; border-radius: 1em; }
.status-working { background: #dafbe1; color: #116329; }
.status-error { background: #ffebe9; color: #a40e26; }
</style>
`
