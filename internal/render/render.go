// Package render writes the brief as a static HTML report and a JSON record.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"regexp"

	"github.com/athena-os-2026/sanctions-radar/internal/eventstore"
	"github.com/athena-os-2026/sanctions-radar/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

var reportTmpl = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"swatch": func(c string) template.CSS {
		if hexColor.MatchString(c) {
			return template.CSS(c)
		}
		return template.CSS("#b2bec3")
	},
}).ParseFS(templateFS, "templates/report.html.tmpl"))

type section struct {
	Title string
	HTML  template.HTML
}

type signalRow struct {
	Title    string
	URL      string
	Category string
	Source   string
	When     string
}

type reportData struct {
	Brief          *models.Brief
	PeriodLabel    string
	GeneratedLabel string
	Narrative      template.HTML
	Sections       []section
	TopSignals     []signalRow
}

// Report renders the HTML report. Narrative and section HTML come from the
// model or the local templates and are embedded as markup.
func Report(w io.Writer, b *models.Brief) error {
	data := reportData{
		Brief:          b,
		PeriodLabel:    fmt.Sprintf("%s to %s", b.Period.Start.Format("Jan 2, 2006"), b.Period.End.Format("Jan 2, 2006")),
		GeneratedLabel: b.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"),
		Narrative:      template.HTML(b.Narrative),
	}
	for _, s := range b.Sections {
		data.Sections = append(data.Sections, section{Title: s.Title, HTML: template.HTML(s.HTML)})
	}
	for _, ts := range b.TopSignals {
		row := signalRow{
			Title:    ts.Signal.Headline(),
			URL:      ts.Signal.URL(),
			Category: ts.Category,
			Source:   ts.Signal.Source(),
		}
		if row.Title == "" {
			row.Title = "(untitled)"
		}
		if at := ts.Timestamp(); !at.IsZero() {
			row.When = at.UTC().Format("Jan 2 15:04")
		}
		data.TopSignals = append(data.TopSignals, row)
	}

	if err := reportTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// WriteReport renders the report and atomically replaces path.
func WriteReport(path string, b *models.Brief) error {
	var buf bytes.Buffer
	if err := Report(&buf, b); err != nil {
		return err
	}
	if err := eventstore.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// WriteRecord writes the structured record as indented JSON.
func WriteRecord(path string, rec models.BriefRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding brief record: %w", err)
	}
	data = append(data, '\n')
	if err := eventstore.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing brief record: %w", err)
	}
	return nil
}

// LoadRecord reads a record written by WriteRecord.
func LoadRecord(path string) (*models.BriefRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading brief record: %w", err)
	}
	var rec models.BriefRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding brief record %s: %w", path, err)
	}
	return &rec, nil
}
