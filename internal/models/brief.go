package models

import "time"

// Variant selects how many text-generation passes the synthesizer runs.
type Variant string

const (
	// VariantSimple runs one pass producing free-form HTML sections.
	VariantSimple Variant = "simple"

	// VariantExtended runs entity extraction, brief synthesis and social-post passes.
	VariantExtended Variant = "extended"
)

// RiskLevel is the overall risk label of a brief.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Risk pairs a level with its display outlook.
type Risk struct {
	Level   RiskLevel `bson:"level" json:"level"`
	Outlook string    `bson:"outlook" json:"outlook"`
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	Category string `bson:"category" json:"category"`
	Label    string `bson:"label" json:"label"`
	Color    string `bson:"color,omitempty" json:"color,omitempty"`
	Count    int    `bson:"count" json:"count"`
}

// CategorySummary groups an EventSet by category. It is never persisted.
type CategorySummary struct {
	// Order lists categories by count descending, then slug.
	Order  []string
	Counts map[string]int
	Top    map[string][]TaggedSignal
}

// Stats are summary statistics over an EventSet.
type Stats struct {
	Total      int            `bson:"total" json:"total"`
	BySeverity map[string]int `bson:"by_severity" json:"by_severity"`
	Sources    int            `bson:"sources" json:"sources"`
	Newest     time.Time      `bson:"newest,omitempty" json:"newest,omitempty"`
	Oldest     time.Time      `bson:"oldest,omitempty" json:"oldest,omitempty"`
}

// Section is one titled block of narrative HTML.
type Section struct {
	Title string `bson:"title" json:"title"`
	HTML  string `bson:"html" json:"html"`
}

// Entity is an organisation, person, wallet or jurisdiction named in the signals.
type Entity struct {
	Name     string `bson:"name" json:"name"`
	Type     string `bson:"type" json:"type"`
	Category string `bson:"category" json:"category"`
	Mentions int    `bson:"mentions" json:"mentions"`
	Risk     string `bson:"risk" json:"risk"`
}

// Threat is a notable development surfaced from the signals.
type Threat struct {
	Title    string `bson:"title" json:"title"`
	Category string `bson:"category" json:"category"`
	Severity string `bson:"severity" json:"severity"`
	Summary  string `bson:"summary" json:"summary"`
	URL      string `bson:"url,omitempty" json:"url,omitempty"`
}

// Pass names used in provenance.
const (
	PassNarrative = "narrative"
	PassEntities  = "entities"
	PassPosts     = "posts"
)

// Origin records whether content came from the model or the local fallback.
type Origin string

const (
	OriginModel    Origin = "model"
	OriginFallback Origin = "fallback"
)

// Provenance describes how one pass was produced.
type Provenance struct {
	Pass   string `bson:"pass" json:"pass"`
	Origin Origin `bson:"origin" json:"origin"`
	Reason string `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Brief is the full synthesizer output consumed by the renderer.
type Brief struct {
	ID          string
	Variant     Variant
	GeneratedAt time.Time
	Period      Window
	Stats       Stats
	Risk        Risk
	Categories  []CategoryCount
	Headline    string
	Narrative   string
	Sections    []Section
	Entities    []Entity
	Threats     []Threat
	Posts       []string
	TopSignals  []TaggedSignal
	Provenance  []Provenance
}

// Record converts the brief to its persisted structured form. List fields
// are never nil, so the record always carries arrays.
func (b *Brief) Record() BriefRecord {
	return BriefRecord{
		ID:          b.ID,
		Variant:     b.Variant,
		GeneratedAt: b.GeneratedAt,
		Period:      b.Period,
		SignalCount: b.Stats.Total,
		Stats:       b.Stats,
		Risk:        b.Risk,
		Categories:  orEmpty(b.Categories),
		Headline:    b.Headline,
		Narrative:   b.Narrative,
		Sections:    orEmpty(b.Sections),
		Entities:    orEmpty(b.Entities),
		Threats:     orEmpty(b.Threats),
		Posts:       orEmpty(b.Posts),
		Provenance:  orEmpty(b.Provenance),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// BriefRecord is the structured JSON record written next to the report.
type BriefRecord struct {
	ID          string          `bson:"id" json:"id"`
	Variant     Variant         `bson:"variant" json:"variant"`
	GeneratedAt time.Time       `bson:"generated_at" json:"generated_at"`
	Period      Window          `bson:"period" json:"period"`
	SignalCount int             `bson:"signal_count" json:"signal_count"`
	Stats       Stats           `bson:"stats" json:"stats"`
	Risk        Risk            `bson:"risk" json:"risk"`
	Categories  []CategoryCount `bson:"categories" json:"categories"`
	Headline    string          `bson:"headline" json:"headline"`
	Narrative   string          `bson:"narrative,omitempty" json:"narrative,omitempty"`
	Sections    []Section       `bson:"sections" json:"sections"`
	Entities    []Entity        `bson:"entities" json:"entities"`
	Threats     []Threat        `bson:"threats" json:"threats"`
	Posts       []string        `bson:"posts" json:"posts"`
	Provenance  []Provenance    `bson:"provenance" json:"provenance"`
}
