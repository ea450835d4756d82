package brief

import (
	"context"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/llm"
	"github.com/athena-os-2026/sanctions-radar/internal/metrics"
	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTopPerCategory bounds the representative signals per category.
	DefaultTopPerCategory = 5

	maxTopSignals = 10
)

// Synthesizer produces a Brief from an EventSet. Every model pass has a
// deterministic fallback, so Run always yields a complete Brief.
type Synthesizer struct {
	llm          llm.Generator
	catalog      models.Catalog
	variant      models.Variant
	topN         int
	windowLength time.Duration
	now          func() time.Time
	newID        func() string
	metrics      *metrics.Recorder
}

// Option configures the Synthesizer.
type Option func(*Synthesizer)

// WithGenerator sets the text-generation client. Without one every pass
// falls back.
func WithGenerator(g llm.Generator) Option {
	return func(s *Synthesizer) { s.llm = g }
}

func WithCatalog(c models.Catalog) Option {
	return func(s *Synthesizer) { s.catalog = c }
}

func WithVariant(v models.Variant) Option {
	return func(s *Synthesizer) {
		if v == models.VariantSimple || v == models.VariantExtended {
			s.variant = v
		}
	}
}

func WithTopPerCategory(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.topN = n
		}
	}
}

func WithWindowLength(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.windowLength = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(s *Synthesizer) { s.newID = f }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Synthesizer) { s.metrics = m }
}

// New creates a Synthesizer for the extended variant with the default catalog.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		catalog:      models.DefaultCatalog(),
		variant:      models.VariantExtended,
		topN:         DefaultTopPerCategory,
		windowLength: models.DefaultWindowLength,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run synthesizes the brief. Model failures select the per-pass fallback and
// are recorded in the brief's provenance.
func (s *Synthesizer) Run(ctx context.Context, es models.EventSet) *models.Brief {
	now := s.now().UTC()
	period := models.RollingWindow(now, s.windowLength)
	summary := Group(es, s.topN)
	stats := ComputeStats(es)
	risk := AssessRisk(stats)
	digest := Digest(summary, stats, risk, period, s.catalog, s.topN)

	b := &models.Brief{
		ID:          s.newID(),
		Variant:     s.variant,
		GeneratedAt: now,
		Period:      period,
		Stats:       stats,
		Risk:        risk,
		Categories:  CategoryCounts(summary, s.catalog),
		Headline:    Headline(stats, risk, len(summary.Order)),
		Sections:    FallbackSections(summary, s.catalog),
		TopSignals:  topSignals(es),
	}

	log.Info().
		Str("brief_id", b.ID).
		Str("variant", string(s.variant)).
		Int("signals", stats.Total).
		Int("categories", len(summary.Order)).
		Str("risk", string(risk.Level)).
		Bool("llm", s.llm != nil).
		Msg("Synthesizing brief")

	fallbackNarrative := func() string {
		return FallbackNarrative(summary, stats, risk, period, s.catalog)
	}

	if s.variant == models.VariantSimple {
		res := s.htmlPass(ctx, models.PassNarrative, buildSectionsPrompt(digest), 1500)
		b.Narrative = s.choose(b, models.PassNarrative, res, fallbackNarrative)
		s.finish(b)
		return b
	}

	// Pass 1: entities and threats.
	extracted := s.entitiesPass(ctx, digest)
	var pass1 *extraction
	if x, ok := extracted.Get(); ok {
		pass1 = &x
		b.Entities, b.Threats = fromExtraction(x)
		s.record(b, models.PassEntities, llm.Success(struct{}{}))
	} else {
		b.Entities = FallbackEntities(es)
		b.Threats = FallbackThreats(es, s.catalog)
		s.record(b, models.PassEntities, llm.Failure[struct{}](extracted.Reason()))
	}

	// Pass 2: narrative, informed by pass 1 when it succeeded.
	res := s.htmlPass(ctx, models.PassNarrative, buildNarrativePrompt(digest, pass1), 1500)
	b.Narrative = s.choose(b, models.PassNarrative, res, fallbackNarrative)

	// Pass 3: social posts.
	posts := s.postsPass(ctx, digest)
	if p, ok := posts.Get(); ok {
		b.Posts = ClampPosts(p.Posts)
		s.record(b, models.PassPosts, llm.Success(struct{}{}))
	} else {
		b.Posts = FallbackPosts(summary, stats, risk, s.catalog)
		s.record(b, models.PassPosts, llm.Failure[struct{}](posts.Reason()))
	}

	s.finish(b)
	return b
}

func (s *Synthesizer) finish(b *models.Brief) {
	fallbacks := 0
	for _, p := range b.Provenance {
		if p.Origin == models.OriginFallback {
			fallbacks++
		}
	}
	log.Info().
		Str("brief_id", b.ID).
		Str("headline", b.Headline).
		Int("passes", len(b.Provenance)).
		Int("fallbacks", fallbacks).
		Msg("Brief synthesized")
}

func (s *Synthesizer) choose(b *models.Brief, pass string, res llm.Result[string], fallback func() string) string {
	s.record(b, pass, res)
	if html, ok := res.Get(); ok {
		return html
	}
	return fallback()
}

type outcome interface {
	OK() bool
	Reason() string
}

// record appends provenance for a pass and counts it.
func (s *Synthesizer) record(b *models.Brief, pass string, res outcome) {
	p := models.Provenance{Pass: pass, Origin: models.OriginModel}
	if !res.OK() {
		p.Origin = models.OriginFallback
		p.Reason = res.Reason()
		log.Warn().
			Str("pass", pass).
			Str("reason", p.Reason).
			Msg("Using fallback content")
	}
	b.Provenance = append(b.Provenance, p)
	s.metrics.PassDone(pass, string(p.Origin))
}

func (s *Synthesizer) chat(ctx context.Context, req llm.ChatRequest) (string, string) {
	if s.llm == nil {
		return "", "text generation not configured"
	}
	req.SystemPrompt = analystSystemPrompt
	resp, err := s.llm.Chat(ctx, req)
	if err != nil {
		return "", err.Error()
	}
	return resp.Content, ""
}

func (s *Synthesizer) htmlPass(ctx context.Context, pass, prompt string, maxTokens int) llm.Result[string] {
	content, failure := s.chat(ctx, llm.ChatRequest{
		UserPrompt:  prompt,
		Temperature: 0.3,
		MaxTokens:   maxTokens,
	})
	if failure != "" {
		return llm.Failure[string](failure)
	}
	log.Debug().Str("pass", pass).Int("chars", len(content)).Msg("Model response received")
	return llm.DecodeHTML(content)
}

func (s *Synthesizer) entitiesPass(ctx context.Context, digest string) llm.Result[extraction] {
	content, failure := s.chat(ctx, llm.ChatRequest{
		UserPrompt:  buildEntitiesPrompt(digest),
		Temperature: 0.2,
		MaxTokens:   1200,
		JSONMode:    true,
	})
	if failure != "" {
		return llm.Failure[extraction](failure)
	}
	return llm.DecodeJSON[extraction](content)
}

func (s *Synthesizer) postsPass(ctx context.Context, digest string) llm.Result[postBatch] {
	content, failure := s.chat(ctx, llm.ChatRequest{
		UserPrompt:  buildPostsPrompt(digest),
		Temperature: 0.5,
		MaxTokens:   600,
		JSONMode:    true,
	})
	if failure != "" {
		return llm.Failure[postBatch](failure)
	}
	return llm.DecodeJSON[postBatch](content)
}

func fromExtraction(x extraction) ([]models.Entity, []models.Threat) {
	entities := make([]models.Entity, 0, len(x.Entities))
	for _, e := range x.Entities {
		entities = append(entities, models.Entity{
			Name:     e.Name,
			Type:     e.Type,
			Category: e.Category,
			Mentions: e.Mentions,
			Risk:     e.Risk,
		})
	}
	threats := make([]models.Threat, 0, len(x.Threats))
	for _, t := range x.Threats {
		threats = append(threats, models.Threat{
			Title:    t.Title,
			Category: t.Category,
			Severity: t.Severity,
			Summary:  t.Summary,
			URL:      t.URL,
		})
	}
	return entities, threats
}

func topSignals(es models.EventSet) []models.TaggedSignal {
	n := len(es)
	if n > maxTopSignals {
		n = maxTopSignals
	}
	return append([]models.TaggedSignal{}, es[:n]...)
}
