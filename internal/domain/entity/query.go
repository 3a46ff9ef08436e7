package entity

import (
	"fmt"
	"strings"
)

// ModelChoice selects which backend handles a query.
type ModelChoice int

const (
	ModelNEENMED ModelChoice = iota + 1
	ModelDECMED
	ModelNBMED
)

// ModelChoices lists every backend in display order.
var ModelChoices = []ModelChoice{ModelNEENMED, ModelDECMED, ModelNBMED}

var modelNames = map[ModelChoice]string{
	ModelNEENMED: "NEENMED",
	ModelDECMED:  "DECMED",
	ModelNBMED:   "NBMED",
}

func (m ModelChoice) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ModelChoice(%d)", int(m))
}

func (m ModelChoice) Valid() bool {
	_, ok := modelNames[m]
	return ok
}

// ParseModelChoice maps a model name (case-insensitive) to its ModelChoice.
func ParseModelChoice(s string) (ModelChoice, error) {
	name := strings.TrimSpace(s)
	for _, m := range ModelChoices {
		if strings.EqualFold(modelNames[m], name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Perspective is the role a query is framed from. General adds no prefix.
type Perspective int

const (
	PerspectiveGeneral Perspective = iota + 1
	PerspectiveSurgeon
	PerspectiveCardiologist
	PerspectivePharmacist
)

var Perspectives = []Perspective{
	PerspectiveGeneral,
	PerspectiveSurgeon,
	PerspectiveCardiologist,
	PerspectivePharmacist,
}

var perspectiveNames = map[Perspective]string{
	PerspectiveGeneral:      "General",
	PerspectiveSurgeon:      "Surgeon",
	PerspectiveCardiologist: "Cardiologist",
	PerspectivePharmacist:   "Pharmacist",
}

func (p Perspective) String() string {
	if name, ok := perspectiveNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Perspective(%d)", int(p))
}

func (p Perspective) Valid() bool {
	_, ok := perspectiveNames[p]
	return ok
}

// Prefix returns the bracketed role tag, including its trailing space.
func (p Perspective) Prefix() string {
	if p == PerspectiveGeneral || !p.Valid() {
		return ""
	}
	return "[" + p.String() + "] "
}

// ParsePerspective maps a perspective name (case-insensitive) to its Perspective.
// An empty string selects General.
func ParsePerspective(s string) (Perspective, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return PerspectiveGeneral, nil
	}
	for _, p := range Perspectives {
		if strings.EqualFold(perspectiveNames[p], name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPerspective, s)
}

// BuildQuery prepends the perspective prefix to the raw user text.
// The raw text is kept exactly as typed.
func BuildQuery(p Perspective, raw string) string {
	return p.Prefix() + raw
}

// IsBlank reports whether the input has nothing to send.
func IsBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// GenerationParams bounds a single generate call.
type GenerationParams struct {
	MaxLength  int
	NumSamples int
	Sample     bool
}

// DefaultGenerationParams are used for every dispatched query.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		MaxLength:  100,
		NumSamples: 1,
		Sample:     true,
	}
}

type QueryRequest struct {
	UserID      string `json:"user_id" form:"user_id"`
	Model       string `json:"model" form:"model"`
	Perspective string `json:"perspective" form:"perspective"`
	Query       string `json:"query" form:"query"`
}

type QueryResponse struct {
	RequestID   string `json:"request_id,omitempty"`
	Model       string `json:"model"`
	Perspective string `json:"perspective"`
	Query       string `json:"query"` // what the backend received
	Response    string `json:"response"`
	Latency     int64  `json:"latency_ms"`
}
