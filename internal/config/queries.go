package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"gopkg.in/yaml.v3"
)

type queryFile struct {
	Queries []models.QuerySpec `yaml:"queries"`
}

// LoadQuerySet reads a YAML query file of the form
//
//	queries:
//	  - entity: Garantex
//	    topic: sanctions
//	    category: sanctions
//	    severity: high
func LoadQuerySet(path string) (models.QuerySet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return models.QuerySet{}, fmt.Errorf("reading query file: %w", err)
	}
	var f queryFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return models.QuerySet{}, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	if len(f.Queries) == 0 {
		return models.QuerySet{}, fmt.Errorf("query file %s has no queries", path)
	}
	for i, q := range f.Queries {
		if strings.TrimSpace(q.Entity) == "" && strings.TrimSpace(q.Topic) == "" {
			return models.QuerySet{}, fmt.Errorf("query %d: entity or topic is required", i)
		}
		if strings.TrimSpace(q.Category) == "" {
			return models.QuerySet{}, fmt.Errorf("query %d (%s): category is required", i, q.Label())
		}
	}
	return models.NewQuerySet(f.Queries...), nil
}

// DefaultQuerySet is the built-in watchlist.
func DefaultQuerySet() models.QuerySet {
	return models.NewQuerySet(
		models.QuerySpec{Entity: "OFAC", Topic: "crypto sanctions designation", Category: "sanctions", Severity: models.SeverityHigh},
		models.QuerySpec{Entity: "Garantex", Topic: "sanctions evasion", Category: "sanctions", Severity: models.SeverityHigh},
		models.QuerySpec{Entity: "EU Council", Topic: "sanctions package", Category: "sanctions", Severity: models.SeverityMedium},
		models.QuerySpec{Entity: "Tornado Cash", Topic: "mixer laundering", Category: "money-laundering", Severity: models.SeverityHigh},
		models.QuerySpec{Entity: "FinCEN", Topic: "money laundering enforcement", Category: "money-laundering", Severity: models.SeverityMedium},
		models.QuerySpec{Entity: "Lazarus Group", Topic: "exploit stolen funds", Category: "exploit", Severity: models.SeverityCritical},
		models.QuerySpec{Entity: "DeFi protocol", Topic: "bridge hack", Category: "exploit", Severity: models.SeverityHigh},
		models.QuerySpec{Entity: "DOJ", Topic: "crypto fraud indictment", Category: "fraud", Severity: models.SeverityMedium},
		models.QuerySpec{Entity: "pig butchering", Topic: "investment scam", Category: "fraud", Severity: models.SeverityMedium},
		models.QuerySpec{Entity: "FATF", Topic: "virtual asset guidance", Category: "regulation", Severity: models.SeverityLow},
		models.QuerySpec{Entity: "SEC", Topic: "crypto enforcement action", Category: "regulation", Severity: models.SeverityMedium},
		models.QuerySpec{Entity: "Hamas", Topic: "crypto terrorism financing seizure", Category: "terrorism-financing", Severity: models.SeverityCritical},
	)
}
