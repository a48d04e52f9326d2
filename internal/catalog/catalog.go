// Package catalog provides the read-only questionnaire catalog: sectors,
// subsectors, and the ordered question sequences scoped to each pair.
// The catalog is loaded once at startup and never mutated.
package catalog

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Kind classifies how a question's answer is collected.
type Kind string

const (
	KindFreeText     Kind = "free_text"
	KindSingleChoice Kind = "single_choice"
	KindMultiChoice  Kind = "multi_choice"
)

// Choice reports whether the kind presents a numbered option list.
func (k Kind) Choice() bool {
	return k == KindSingleChoice || k == KindMultiChoice
}

// Reserved answer keys for the two synthesized selection steps. Catalog
// question ids must not collide with these.
const (
	SectorAnswerKey    = "sector"
	SubsectorAnswerKey = "subsector"
)

// Question is one immutable questionnaire item.
type Question struct {
	ID              string   `yaml:"id"`
	Prompt          string   `yaml:"prompt"`
	Kind            Kind     `yaml:"kind"`
	Options         []string `yaml:"options,omitempty"`
	Explanation     string   `yaml:"explanation,omitempty"`
	SuggestDocument bool     `yaml:"suggest_document,omitempty"`
	Optional        bool     `yaml:"optional,omitempty"`
}

// Required reports whether an answer is mandatory for completion. Questions
// are required unless the catalog marks them optional.
func (q Question) Required() bool {
	return !q.Optional
}

type subsector struct {
	Name      string     `yaml:"name"`
	Questions []Question `yaml:"questions"`
}

type sector struct {
	Name       string      `yaml:"name"`
	Facts      []string    `yaml:"facts,omitempty"`
	Subsectors []subsector `yaml:"subsectors"`
}

type document struct {
	Sectors []sector `yaml:"sectors"`
}

// Catalog is the loaded sector/subsector question index.
type Catalog struct {
	sectors []sector
}

//go:embed data/catalog.yaml
var defaultData []byte

// Default parses the embedded questionnaire catalog.
func Default() (*Catalog, error) {
	return Parse(defaultData)
}

// LoadFile parses a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "catalog: decode yaml")
	}
	c := &Catalog{sectors: doc.Sectors}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.sectors) == 0 {
		return eris.New("catalog: no sectors defined")
	}
	seenSector := make(map[string]bool)
	for _, s := range c.sectors {
		if s.Name == "" {
			return eris.New("catalog: sector with empty name")
		}
		if seenSector[s.Name] {
			return eris.Errorf("catalog: duplicate sector %q", s.Name)
		}
		seenSector[s.Name] = true

		if len(s.Subsectors) == 0 {
			return eris.Errorf("catalog: sector %q has no subsectors", s.Name)
		}
		seenSub := make(map[string]bool)
		for _, sub := range s.Subsectors {
			if sub.Name == "" {
				return eris.Errorf("catalog: sector %q has a subsector with empty name", s.Name)
			}
			if seenSub[sub.Name] {
				return eris.Errorf("catalog: duplicate subsector %q in sector %q", sub.Name, s.Name)
			}
			seenSub[sub.Name] = true

			seenID := make(map[string]bool)
			for _, q := range sub.Questions {
				if err := validateQuestion(s.Name, sub.Name, q, seenID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateQuestion(sectorName, subName string, q Question, seenID map[string]bool) error {
	where := sectorName + "/" + subName
	if q.ID == "" {
		return eris.Errorf("catalog: %s: question with empty id", where)
	}
	if q.ID == SectorAnswerKey || q.ID == SubsectorAnswerKey {
		return eris.Errorf("catalog: %s: question id %q collides with a reserved key", where, q.ID)
	}
	if seenID[q.ID] {
		return eris.Errorf("catalog: %s: duplicate question id %q", where, q.ID)
	}
	seenID[q.ID] = true
	if q.Prompt == "" {
		return eris.Errorf("catalog: %s: question %q has no prompt", where, q.ID)
	}
	switch q.Kind {
	case KindFreeText:
		if len(q.Options) > 0 {
			return eris.Errorf("catalog: %s: free-text question %q has options", where, q.ID)
		}
	case KindSingleChoice, KindMultiChoice:
		if len(q.Options) == 0 {
			return eris.Errorf("catalog: %s: choice question %q has no options", where, q.ID)
		}
	default:
		return eris.Errorf("catalog: %s: question %q has unknown kind %q", where, q.ID, q.Kind)
	}
	return nil
}

// ListSectors returns the sector names in presentation order.
func (c *Catalog) ListSectors() []string {
	out := make([]string, len(c.sectors))
	for i, s := range c.sectors {
		out[i] = s.Name
	}
	return out
}

// ListSubsectors returns the subsector names for a sector in presentation
// order, or an error when the sector is unknown.
func (c *Catalog) ListSubsectors(sectorName string) ([]string, error) {
	s := c.findSector(sectorName)
	if s == nil {
		return nil, eris.Errorf("catalog: unknown sector %q", sectorName)
	}
	out := make([]string, len(s.Subsectors))
	for i, sub := range s.Subsectors {
		out[i] = sub.Name
	}
	return out, nil
}

// QuestionsFor returns the ordered question sequence for a sector/subsector
// pair. An unknown pair yields an empty slice, signaling that no catalog
// questions remain.
func (c *Catalog) QuestionsFor(sectorName, subName string) []Question {
	if sub := c.findSubsector(sectorName, subName); sub != nil {
		return sub.Questions
	}
	return nil
}

// FindQuestion looks up one question by id within a sector/subsector pair.
// Returns nil when not found.
func (c *Catalog) FindQuestion(sectorName, subName, questionID string) *Question {
	for _, q := range c.QuestionsFor(sectorName, subName) {
		if q.ID == questionID {
			return &q
		}
	}
	return nil
}

// Facts returns the educational facts attached to a sector.
func (c *Catalog) Facts(sectorName string) []string {
	if s := c.findSector(sectorName); s != nil {
		return s.Facts
	}
	return nil
}

// SectorQuestion synthesizes the sector-selection pseudo-question. Its
// options come from the sector index itself.
func (c *Catalog) SectorQuestion() Question {
	return Question{
		ID:          SectorAnswerKey,
		Prompt:      "¿A qué sector pertenece tu proyecto?",
		Kind:        KindSingleChoice,
		Options:     c.ListSectors(),
		Explanation: "El sector determina las preguntas del diagnóstico y la normativa aplicable.",
	}
}

// SubsectorQuestion synthesizes the subsector-selection pseudo-question for
// an already-selected sector.
func (c *Catalog) SubsectorQuestion(sectorName string) (Question, error) {
	subs, err := c.ListSubsectors(sectorName)
	if err != nil {
		return Question{}, err
	}
	return Question{
		ID:          SubsectorAnswerKey,
		Prompt:      "¿En qué subsector opera tu empresa?",
		Kind:        KindSingleChoice,
		Options:     subs,
		Explanation: "Cada subsector tiene cargas contaminantes y requisitos de calidad de agua distintos.",
	}, nil
}

func (c *Catalog) findSector(name string) *sector {
	for i := range c.sectors {
		if c.sectors[i].Name == name {
			return &c.sectors[i]
		}
	}
	return nil
}

func (c *Catalog) findSubsector(sectorName, subName string) *subsector {
	s := c.findSector(sectorName)
	if s == nil {
		return nil
	}
	for i := range s.Subsectors {
		if s.Subsectors[i].Name == subName {
			return &s.Subsectors[i]
		}
	}
	return nil
}
