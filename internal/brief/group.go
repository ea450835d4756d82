// Package brief turns an EventSet into a weekly risk brief, with or without a
// text-generation model.
package brief

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Uncategorized is used for signals whose query carried no category.
const Uncategorized = "uncategorized"

// Group builds the per-category summary. Top holds the first topN signals of
// each category in EventSet order, which is newest first.
func Group(es models.EventSet, topN int) models.CategorySummary {
	summary := models.CategorySummary{
		Counts: make(map[string]int),
		Top:    make(map[string][]models.TaggedSignal),
	}

	for _, ts := range es {
		cat := categoryOf(ts)
		if _, seen := summary.Counts[cat]; !seen {
			summary.Order = append(summary.Order, cat)
		}
		summary.Counts[cat]++
		if len(summary.Top[cat]) < topN {
			summary.Top[cat] = append(summary.Top[cat], ts)
		}
	}

	sort.Slice(summary.Order, func(i, j int) bool {
		a, b := summary.Order[i], summary.Order[j]
		if summary.Counts[a] != summary.Counts[b] {
			return summary.Counts[a] > summary.Counts[b]
		}
		return a < b
	})
	return summary
}

func categoryOf(ts models.TaggedSignal) string {
	if ts.Category == "" {
		return Uncategorized
	}
	return ts.Category
}

// ComputeStats summarises an EventSet.
func ComputeStats(es models.EventSet) models.Stats {
	stats := models.Stats{
		Total:      len(es),
		BySeverity: make(map[string]int),
	}
	sources := make(map[string]struct{})

	for _, ts := range es {
		if ts.Severity != "" {
			stats.BySeverity[ts.Severity]++
		}
		if src := ts.Signal.Source(); src != "" {
			sources[strings.ToLower(src)] = struct{}{}
		}
		at := ts.Timestamp()
		if at.IsZero() {
			continue
		}
		if stats.Newest.IsZero() || at.After(stats.Newest) {
			stats.Newest = at
		}
		if stats.Oldest.IsZero() || at.Before(stats.Oldest) {
			stats.Oldest = at
		}
	}
	stats.Sources = len(sources)
	return stats
}

// Risk thresholds on counts of high and critical signals, and on the total.
const (
	ElevatedSevere = 10
	ElevatedTotal  = 100
	WatchSevere    = 3
	WatchTotal     = 25
)

// AssessRisk derives the deterministic risk label from counts alone.
func AssessRisk(stats models.Stats) models.Risk {
	severe := stats.BySeverity[models.SeverityHigh] + stats.BySeverity[models.SeverityCritical]
	switch {
	case severe >= ElevatedSevere || stats.Total >= ElevatedTotal:
		return models.Risk{Level: models.RiskHigh, Outlook: "Elevated"}
	case severe >= WatchSevere || stats.Total >= WatchTotal:
		return models.Risk{Level: models.RiskModerate, Outlook: "Watch"}
	default:
		return models.Risk{Level: models.RiskLow, Outlook: "Stable"}
	}
}

var titleCaser = cases.Title(language.Und)

// Label returns the display name of a category slug.
func Label(catalog models.Catalog, slug string) string {
	if cat, ok := catalog.Get(slug); ok {
		return cat.Name
	}
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}

// CategoryCounts lists the summary's categories with display metadata.
func CategoryCounts(summary models.CategorySummary, catalog models.Catalog) []models.CategoryCount {
	out := make([]models.CategoryCount, 0, len(summary.Order))
	for _, slug := range summary.Order {
		cc := models.CategoryCount{
			Category: slug,
			Label:    Label(catalog, slug),
			Count:    summary.Counts[slug],
		}
		if cat, ok := catalog.Get(slug); ok {
			cc.Color = cat.Color
		}
		out = append(out, cc)
	}
	return out
}

var severityOrder = []string{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityLow,
}

const maxDigestTitle = 160

// Digest renders the bounded plain-text digest sent to the model: one block
// per category with its count and up to perCategory representative lines.
func Digest(summary models.CategorySummary, stats models.Stats, risk models.Risk, period models.Window, catalog models.Catalog, perCategory int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Period: %s to %s (UTC)\n", period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total signals: %d", stats.Total)
	var parts []string
	for _, sev := range severityOrder {
		if n := stats.BySeverity[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", sev, n))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Distinct sources: %d\n", stats.Sources)
	fmt.Fprintf(&b, "Count-based risk: %s (%s)\n", risk.Level, risk.Outlook)

	if stats.Total == 0 {
		b.WriteString("\nNo signals were collected in this period.\n")
		return b.String()
	}

	for _, slug := range summary.Order {
		fmt.Fprintf(&b, "\n## %s: %d signals\n", Label(catalog, slug), summary.Counts[slug])
		for i, ts := range summary.Top[slug] {
			if i >= perCategory {
				break
			}
			b.WriteString("- ")
			b.WriteString(truncate(headlineOf(ts), maxDigestTitle))
			if src := ts.Signal.Source(); src != "" {
				fmt.Fprintf(&b, " (%s)", src)
			}
			if at := ts.Timestamp(); !at.IsZero() {
				fmt.Fprintf(&b, " [%s]", at.UTC().Format(time.DateOnly))
			}
			if ts.Severity != "" {
				fmt.Fprintf(&b, " severity=%s", ts.Severity)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func headlineOf(ts models.TaggedSignal) string {
	if h := ts.Signal.Headline(); h != "" {
		return h
	}
	return "(untitled " + ts.Entity + " signal)"
}

func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
