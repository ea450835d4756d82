package brief

import (
	"errors"
	"fmt"
	"strings"
)

const analystSystemPrompt = `You are a senior financial-crime intelligence analyst writing a weekly brief on sanctions, money laundering, crypto exploits and related enforcement.

EDITORIAL STANDARDS:
1. ACCURACY FIRST: Use only facts present in the digest. Never invent entities, figures or dates.
2. SPECIFIC OVER VAGUE: Name the entities, jurisdictions and categories involved.
3. EXPLAIN THE STAKES: Say why compliance and risk teams should care.
4. SHORT & DIRECT: One idea per sentence.
5. NO ADVICE: Describe risk, never recommend trades or legal action.`

const sectionsPrompt = `Write the weekly brief for the signals below.

%s

Respond ONLY with HTML fragments (no <html>, <head> or <body>). Use <h3> for section titles and <p>/<ul> for content. Cover:
- Overview of the week
- Key developments per category
- What to watch next week`

const entitiesPrompt = `Extract the entities and threats from the signals below.

%s

Respond ONLY with valid JSON:
{
  "entities": [{"name": "...", "type": "exchange|mixer|wallet|person|organisation|jurisdiction", "category": "category slug", "mentions": 1, "risk": "low|medium|high|critical"}],
  "threats": [{"title": "...", "category": "category slug", "severity": "low|medium|high|critical", "summary": "one sentence", "url": "source url if known"}]
}
List at most 10 entities and 5 threats.`

const narrativePrompt = `Write the narrative section of the weekly brief for the signals below.

%s
%s
Respond ONLY with HTML fragments (no <html>, <head> or <body>): two to four <p> paragraphs. Lead with the most significant development, then cover the remaining categories and close with what to watch.`

const postsPrompt = `Write short social media posts summarising this week's signals.

%s

Respond ONLY with valid JSON: {"posts": ["...", "..."]}
Write 3 to 5 posts. Each post must be at most 280 characters, factual, and may include one or two hashtags.`

func buildSectionsPrompt(digest string) string {
	return fmt.Sprintf(sectionsPrompt, digest)
}

func buildEntitiesPrompt(digest string) string {
	return fmt.Sprintf(entitiesPrompt, digest)
}

func buildNarrativePrompt(digest string, extracted *extraction) string {
	extra := ""
	if extracted != nil {
		var b strings.Builder
		b.WriteString("\nExtracted entities and threats:\n")
		for _, e := range extracted.Entities {
			fmt.Fprintf(&b, "- %s (%s, %s, risk %s)\n", e.Name, e.Type, e.Category, e.Risk)
		}
		for _, t := range extracted.Threats {
			fmt.Fprintf(&b, "- threat: %s [%s/%s]\n", t.Title, t.Category, t.Severity)
		}
		extra = b.String()
	}
	return fmt.Sprintf(narrativePrompt, digest, extra)
}

func buildPostsPrompt(digest string) string {
	return fmt.Sprintf(postsPrompt, digest)
}

// extraction is the JSON shape of the entities pass.
type extraction struct {
	Entities []extractedEntity `json:"entities"`
	Threats  []extractedThreat `json:"threats"`
}

type extractedEntity struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Mentions int    `json:"mentions"`
	Risk     string `json:"risk"`
}

type extractedThreat struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

func (x extraction) Validate() error {
	if len(x.Entities) == 0 && len(x.Threats) == 0 {
		return errors.New("no entities or threats")
	}
	for i, e := range x.Entities {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("entity %d has no name", i)
		}
	}
	for i, t := range x.Threats {
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("threat %d has no title", i)
		}
	}
	return nil
}

// postBatch is the JSON shape of the posts pass.
type postBatch struct {
	Posts []string `json:"posts"`
}

func (p postBatch) Validate() error {
	for _, post := range p.Posts {
		if strings.TrimSpace(post) != "" {
			return nil
		}
	}
	return errors.New("no posts")
}
