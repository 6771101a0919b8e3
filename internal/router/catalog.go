package router

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Score is the normalized capability profile of one worker model.
type Score struct {
	Code       float64 `json:"code"`
	Reasoning  float64 `json:"reasoning"`
	Math       float64 `json:"math"`
	GeneralQA  float64 `json:"general_qa"`
	Planning   float64 `json:"planning"`
	Multimodal float64 `json:"multimodal"`
	Speed      float64 `json:"speed"`
	Cost       float64 `json:"cost"`
}

// Catalog is the immutable set of worker profiles the arbiter chooses
// from. It is constructed once at startup and passed explicitly into the
// router, never read from package state, so tests can inject their own.
type Catalog struct {
	profiles map[string]Score
}

//go:embed profiles.json
var defaultProfilesJSON []byte

// DefaultCatalog loads the embedded profile set.
func DefaultCatalog() Catalog {
	c, err := ParseCatalog(defaultProfilesJSON)
	if err != nil {
		// The embedded file is part of the build; failing to parse it is
		// a programming error, but routing still works on an empty
		// catalog (the arbiter just gets no profile block).
		return Catalog{profiles: map[string]Score{}}
	}
	return c
}

// ParseCatalog decodes a profiles JSON document.
func ParseCatalog(data []byte) (Catalog, error) {
	profiles := make(map[string]Score)
	if err := json.Unmarshal(data, &profiles); err != nil {
		return Catalog{}, fmt.Errorf("parse model profiles: %w", err)
	}
	return Catalog{profiles: profiles}, nil
}

// NewCatalog builds a catalog from an explicit profile map (tests,
// config overrides).
func NewCatalog(profiles map[string]Score) Catalog {
	copied := make(map[string]Score, len(profiles))
	for k, v := range profiles {
		copied[k] = v
	}
	return Catalog{profiles: copied}
}

// Len reports how many profiles the catalog holds.
func (c Catalog) Len() int {
	return len(c.profiles)
}

// PromptBlock renders the catalog as the text block embedded in the
// arbitration prompt, model names sorted for stable output.
func (c Catalog) PromptBlock() string {
	if len(c.profiles) == 0 {
		return "  (no model profiles loaded)"
	}

	names := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		s := c.profiles[name]
		fmt.Fprintf(&b, "- %s:\n", name)
		fmt.Fprintf(&b, "  code: %g\n", s.Code)
		fmt.Fprintf(&b, "  reasoning: %g\n", s.Reasoning)
		fmt.Fprintf(&b, "  math: %g\n", s.Math)
		fmt.Fprintf(&b, "  general_qa: %g\n", s.GeneralQA)
		fmt.Fprintf(&b, "  planning: %g\n", s.Planning)
		fmt.Fprintf(&b, "  multimodal: %g\n", s.Multimodal)
		fmt.Fprintf(&b, "  speed: %g\n", s.Speed)
		fmt.Fprintf(&b, "  cost: %g\n\n", s.Cost)
	}
	return b.String()
}
