// Package model defines the shared types for zone resolution and
// compliance checking.
package model

import "time"

// Source identifies which detector produced a zone candidate.
type Source string

const (
	SourceExternalAPI  Source = "external_api"
	SourceShapefile    Source = "shapefile"
	SourceRegistration Source = "registration"
	SourceGeocoding    Source = "geocoding"
	SourceTextual      Source = "textual"
	SourceFallback     Source = "fallback"
	SourceDefault      Source = "default"
	SourceCache        Source = "cache"
)

// sourceRank orders sources for deterministic consolidation. Lower wins ties.
var sourceRank = map[Source]int{
	SourceExternalAPI:  0,
	SourceShapefile:    1,
	SourceRegistration: 2,
	SourceGeocoding:    3,
	SourceTextual:      4,
	SourceFallback:     5,
	SourceDefault:      6,
	SourceCache:        7,
}

// Rank returns the consolidation order of s. Unknown sources sort last.
func (s Source) Rank() int {
	if r, ok := sourceRank[s]; ok {
		return r
	}
	return len(sourceRank)
}

// ConfidenceTier classifies how trustworthy a resolution is.
type ConfidenceTier string

const (
	TierOfficialAPI       ConfidenceTier = "OFFICIAL_API"
	TierOfficialShapefile ConfidenceTier = "OFFICIAL_SHAPEFILE"
	TierCrossValidated    ConfidenceTier = "CROSS_VALIDATED"
	TierSEHISCorrected    ConfidenceTier = "SEHIS_CORRECTED"
	TierEstimatedReliable ConfidenceTier = "ESTIMATED_RELIABLE"
	TierEstimatedLow      ConfidenceTier = "ESTIMATED_LOW"
	TierNeedsManualReview ConfidenceTier = "NEEDS_MANUAL_REVIEW"
	TierUnknown           ConfidenceTier = "UNKNOWN"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ResolveInput carries whatever the caller knows about the lot. At least
// one field must be set.
type ResolveInput struct {
	Address      string       `json:"address,omitempty"`
	Registration string       `json:"registration,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

// Empty reports whether no usable input was provided.
func (in ResolveInput) Empty() bool {
	return in.Address == "" && in.Registration == "" && in.Coordinates == nil
}

// ZoneCandidate is one detector's answer for a lot's zone.
type ZoneCandidate struct {
	Zone        string       `json:"zone"`
	RawZone     string       `json:"raw_zone,omitempty"`
	Source      Source       `json:"source"`
	Confidence  float64      `json:"confidence"`
	Details     string       `json:"details,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// ZoneResolution is the consolidated outcome across all detectors.
type ZoneResolution struct {
	ID                  string          `json:"id"`
	Input               ResolveInput    `json:"input"`
	Zone                string          `json:"zone"`
	Tier                ConfidenceTier  `json:"tier"`
	Confidence          float64         `json:"confidence"`
	RequiresManualCheck bool            `json:"requires_manual_check"`
	Candidates          []ZoneCandidate `json:"candidates,omitempty"`
	Conflicts           []string        `json:"conflicts,omitempty"`
	Notes               []string        `json:"notes,omitempty"`
	Coordinates         *Coordinates    `json:"coordinates,omitempty"`
	ResolvedAt          time.Time       `json:"resolved_at"`
}

// LimitKind states which direction a legal limit binds.
type LimitKind string

const (
	LimitMax LimitKind = "max"
	LimitMin LimitKind = "min"
)

// ProjectMetrics describes the proposed construction. Zero values mean
// "not provided" and are skipped during checking.
type ProjectMetrics struct {
	LotAreaM2          float64 `json:"lot_area_m2,omitempty"`
	OccupancyRatePct   float64 `json:"occupancy_rate_pct,omitempty"`
	FloorAreaRatio     float64 `json:"floor_area_ratio,omitempty"`
	HeightM            float64 `json:"height_m,omitempty"`
	Floors             int     `json:"floors,omitempty"`
	FrontSetbackM      float64 `json:"front_setback_m,omitempty"`
	SideSetbackM       float64 `json:"side_setback_m,omitempty"`
	RearSetbackM       float64 `json:"rear_setback_m,omitempty"`
	PermeableAreaPct   float64 `json:"permeable_area_pct,omitempty"`
	DwellingUnits      int     `json:"dwelling_units,omitempty"`
	ParkingSpaces      int     `json:"parking_spaces,omitempty"`
	AccessibleParking  int     `json:"accessible_parking,omitempty"`
	SeniorParking      int     `json:"senior_parking,omitempty"`
}

// ParameterVerdict is the outcome of checking one metric against one limit.
type ParameterVerdict struct {
	Parameter string    `json:"parameter"`
	Kind      LimitKind `json:"kind"`
	Limit     float64   `json:"limit"`
	Actual    float64   `json:"actual"`
	Compliant bool      `json:"compliant"`
	Margin    float64   `json:"margin"`
}

// ComplianceReport aggregates verdicts for a project in a zone.
type ComplianceReport struct {
	Zone       string             `json:"zone"`
	ZoneValid  bool               `json:"zone_valid"`
	Conforming bool               `json:"conforming"`
	Verdicts   []ParameterVerdict `json:"verdicts,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
	CheckedAt  time.Time          `json:"checked_at"`
}
