package brief

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
)

// MaxPostLength bounds every social post.
const MaxPostLength = 280

const (
	maxFallbackEntities = 8
	maxFallbackThreats  = 5
)

var sectionTmpl = template.Must(template.New("section").Parse(
	`<p><strong>{{.Count}}</strong> {{if eq .Count 1}}signal{{else}}signals{{end}} tagged {{.Label}} this period.</p>
{{- if .Top}}
<ul>
{{- range .Top}}
<li>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}{{if .Source}} <em>({{.Source}})</em>{{end}}</li>
{{- end}}
</ul>
{{- end}}`))

var narrativeTmpl = template.Must(template.New("narrative").Parse(
	`{{if eq .Total 0}}<p>No signals were collected between {{.Start}} and {{.End}}. The outlook is <strong>{{.Outlook}}</strong>.</p>
{{- else}}<p>{{.Total}} signals were collected between {{.Start}} and {{.End}} from {{.Sources}} distinct sources. {{.Severe}} carried high or critical severity. The count-based outlook is <strong>{{.Outlook}}</strong>.</p>
{{- if .Leading}}
<p>Most activity was in {{.Leading}}.</p>
{{- end}}
{{- end}}`))

type sectionItem struct {
	Title  string
	URL    string
	Source string
}

// FallbackSections renders one section per category.
func FallbackSections(summary models.CategorySummary, catalog models.Catalog) []models.Section {
	sections := make([]models.Section, 0, len(summary.Order))
	for _, slug := range summary.Order {
		label := Label(catalog, slug)
		data := struct {
			Label string
			Count int
			Top   []sectionItem
		}{Label: label, Count: summary.Counts[slug]}
		for _, ts := range summary.Top[slug] {
			data.Top = append(data.Top, sectionItem{
				Title:  headlineOf(ts),
				URL:    ts.Signal.URL(),
				Source: ts.Signal.Source(),
			})
		}

		var buf bytes.Buffer
		if err := sectionTmpl.Execute(&buf, data); err != nil {
			buf.Reset()
			buf.WriteString(template.HTMLEscapeString(fmt.Sprintf("%d signals tagged %s.", data.Count, label)))
		}
		sections = append(sections, models.Section{Title: label, HTML: buf.String()})
	}
	return sections
}

// FallbackNarrative renders the locally computed overview paragraph.
func FallbackNarrative(summary models.CategorySummary, stats models.Stats, risk models.Risk, period models.Window, catalog models.Catalog) string {
	var leading []string
	for i, slug := range summary.Order {
		if i >= 3 {
			break
		}
		leading = append(leading, fmt.Sprintf("%s (%d)", Label(catalog, slug), summary.Counts[slug]))
	}

	data := struct {
		Total, Sources, Severe int
		Start, End, Outlook    string
		Leading                string
	}{
		Total:   stats.Total,
		Sources: stats.Sources,
		Severe:  stats.BySeverity[models.SeverityHigh] + stats.BySeverity[models.SeverityCritical],
		Start:   period.Start.Format("January 2, 2006"),
		End:     period.End.Format("January 2, 2006"),
		Outlook: risk.Outlook,
		Leading: strings.Join(leading, ", "),
	}

	var buf bytes.Buffer
	if err := narrativeTmpl.Execute(&buf, data); err != nil {
		return template.HTMLEscapeString(fmt.Sprintf("%d signals collected. Outlook: %s.", stats.Total, risk.Outlook))
	}
	return buf.String()
}

// Headline is the deterministic one-line summary of a brief.
func Headline(stats models.Stats, risk models.Risk, categories int) string {
	if stats.Total == 0 {
		return fmt.Sprintf("No signals this week: %s outlook", risk.Outlook)
	}
	noun := "categories"
	if categories == 1 {
		noun = "category"
	}
	return fmt.Sprintf("%d signals across %d %s: %s outlook", stats.Total, categories, noun, risk.Outlook)
}

// FallbackEntities ranks the query entities by how many signals they produced.
func FallbackEntities(es models.EventSet) []models.Entity {
	type tally struct {
		mentions   int
		categories map[string]int
		worst      int
	}
	byName := make(map[string]*tally)
	var order []string

	for _, ts := range es {
		if ts.Entity == "" {
			continue
		}
		t, ok := byName[ts.Entity]
		if !ok {
			t = &tally{categories: make(map[string]int), worst: len(severityOrder)}
			byName[ts.Entity] = t
			order = append(order, ts.Entity)
		}
		t.mentions++
		t.categories[categoryOf(ts)]++
		if r := severityRank(ts.Severity); r < t.worst {
			t.worst = r
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := byName[order[i]], byName[order[j]]
		if a.mentions != b.mentions {
			return a.mentions > b.mentions
		}
		return order[i] < order[j]
	})

	entities := make([]models.Entity, 0, len(order))
	for _, name := range order {
		if len(entities) >= maxFallbackEntities {
			break
		}
		t := byName[name]
		risk := models.SeverityLow
		if t.worst < len(severityOrder) {
			risk = severityOrder[t.worst]
		}
		entities = append(entities, models.Entity{
			Name:     name,
			Type:     "watchlist",
			Category: dominant(t.categories),
			Mentions: t.mentions,
			Risk:     risk,
		})
	}
	return entities
}

func dominant(counts map[string]int) string {
	best, bestN := "", -1
	for cat, n := range counts {
		if n > bestN || (n == bestN && cat < best) {
			best, bestN = cat, n
		}
	}
	return best
}

// severityRank orders critical first; unknown severities rank last.
func severityRank(sev string) int {
	for i, s := range severityOrder {
		if s == sev {
			return i
		}
	}
	return len(severityOrder)
}

// FallbackThreats picks the most severe signals, newest first within a
// severity.
func FallbackThreats(es models.EventSet, catalog models.Catalog) []models.Threat {
	ranked := append(models.EventSet(nil), es...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return severityRank(ranked[i].Severity) < severityRank(ranked[j].Severity)
	})

	threats := make([]models.Threat, 0, maxFallbackThreats)
	for _, ts := range ranked {
		if len(threats) >= maxFallbackThreats {
			break
		}
		summary := fmt.Sprintf("%s signal for %s", Label(catalog, categoryOf(ts)), ts.Entity)
		if src := ts.Signal.Source(); src != "" {
			summary += " reported by " + src
		}
		if text := ts.Signal.Text(); text != "" && text != ts.Signal.Headline() {
			summary += ": " + truncate(text, 200)
		}
		threats = append(threats, models.Threat{
			Title:    truncate(headlineOf(ts), maxDigestTitle),
			Category: categoryOf(ts),
			Severity: ts.Severity,
			Summary:  summary,
			URL:      ts.Signal.URL(),
		})
	}
	return threats
}

// FallbackPosts builds templated social posts, each at most MaxPostLength runes.
func FallbackPosts(summary models.CategorySummary, stats models.Stats, risk models.Risk, catalog models.Catalog) []string {
	posts := []string{
		fmt.Sprintf("Weekly sanctions & illicit-finance radar: %d signals, outlook %s. #sanctions #AML", stats.Total, risk.Outlook),
	}
	for i, slug := range summary.Order {
		if i >= 3 {
			break
		}
		post := fmt.Sprintf("%s: %d signals this week.", Label(catalog, slug), summary.Counts[slug])
		if top := summary.Top[slug]; len(top) > 0 {
			post += " Top: " + headlineOf(top[0])
			if u := top[0].Signal.URL(); u != "" {
				post += " " + u
			}
		}
		posts = append(posts, post)
	}
	return ClampPosts(posts)
}

// ClampPosts drops empty posts and truncates the rest to MaxPostLength.
func ClampPosts(posts []string) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, truncate(p, MaxPostLength))
	}
	return out
}
