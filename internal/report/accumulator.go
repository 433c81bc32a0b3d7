package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/harrison/odc-colab/internal/display"
	"github.com/harrison/odc-colab/internal/filelock"
	"github.com/harrison/odc-colab/internal/models"
)

// Table names one of the three report tables.
type Table string

// Report tables. Each is written to <dir>/<table>.<ext>.
const (
	TableFull      Table = "full"
	TableErrors    Table = "errors"
	TableSuccesses Table = "successes"
)

// Tables lists the report tables in output order.
var Tables = []Table{TableFull, TableErrors, TableSuccesses}

// Title returns the heading used in rendered reports.
func (t Table) Title() string {
	switch t {
	case TableErrors:
		return "Notebook test report: errors"
	case TableSuccesses:
		return "Notebook test report: successes"
	default:
		return "Notebook test report: all notebooks"
	}
}

// Path returns the output location of table in format ext under dir.
func Path(dir string, table Table, ext string) string {
	return filepath.Join(dir, string(table)+"."+ext)
}

// Accumulator collects report rows for one run. Rows are kept in execution
// order; every row lands in the full table and in exactly one of the errors
// or successes tables.
type Accumulator struct {
	dir       string
	full      []models.ReportRow
	errs      []models.ReportRow
	successes []models.ReportRow
	html      Exporter
	csv       Exporter
	now       func() time.Time
}

// NewAccumulator creates an accumulator writing reports under dir.
func NewAccumulator(dir string) *Accumulator {
	return &Accumulator{
		dir:  dir,
		html: NewHTMLExporter(),
		csv:  &CSVExporter{},
		now:  time.Now,
	}
}

// Dir returns the report directory.
func (a *Accumulator) Dir() string {
	return a.dir
}

// Record appends row and re-renders the three HTML reports, overwriting
// the previous render.
func (a *Accumulator) Record(row models.ReportRow) error {
	if err := row.Validate(); err != nil {
		return err
	}

	a.full = append(a.full, row)
	if row.Status == models.StatusError {
		a.errs = append(a.errs, row)
	} else {
		a.successes = append(a.successes, row)
	}

	return a.writeAll(a.html)
}

// Finalize strips terminal escape sequences from every detail and writes the
// three CSV reports. The HTML reports are rendered once more so both formats
// agree, including for a run that recorded nothing.
func (a *Accumulator) Finalize() error {
	for _, rows := range [][]models.ReportRow{a.full, a.errs, a.successes} {
		for i := range rows {
			rows[i].Detail = display.StripANSI(rows[i].Detail)
		}
	}

	if err := a.writeAll(a.html); err != nil {
		return err
	}
	return a.writeAll(a.csv)
}

// Full returns a copy of every recorded row.
func (a *Accumulator) Full() []models.ReportRow {
	return append([]models.ReportRow(nil), a.full...)
}

// Errors returns a copy of the rows with status Error.
func (a *Accumulator) Errors() []models.ReportRow {
	return append([]models.ReportRow(nil), a.errs...)
}

// Successes returns a copy of the rows with status Working.
func (a *Accumulator) Successes() []models.ReportRow {
	return append([]models.ReportRow(nil), a.successes...)
}

func (a *Accumulator) rows(t Table) []models.ReportRow {
	switch t {
	case TableErrors:
		return a.errs
	case TableSuccesses:
		return a.successes
	default:
		return a.full
	}
}

func (a *Accumulator) writeAll(exp Exporter) error {
	generated := a.now()
	for _, t := range Tables {
		data, err := exp.Export(t, a.rows(t), generated)
		if err != nil {
			return err
		}
		path := Path(a.dir, t, exp.Extension())
		if err := filelock.AtomicWrite(path, data, 0644); err != nil {
			return fmt.Errorf("write %s report: %w", t, err)
		}
	}
	return nil
}
