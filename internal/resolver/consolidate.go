package resolver

import (
	"fmt"

	"github.com/guiamarela/zonecheck/internal/model"
	"github.com/guiamarela/zonecheck/internal/registration"
	"github.com/guiamarela/zonecheck/internal/textmatch"
	"github.com/guiamarela/zonecheck/internal/zonemap"
)

// Cross-validated answers get a bump over the bare shapefile hit,
// capped below the official tier.
const crossValidationBonus = 0.15

// consolidate merges detector candidates into one resolution. Priority:
// the official API wins outright; a SEHIS signal at actionable
// confidence overrides estimates; agreement between a coordinate-based
// hit and an independent source upgrades the answer; a lone shapefile
// hit is usable but flagged; anything weaker degrades toward the
// city-wide default.
func consolidate(input model.ResolveInput, coords *model.Coordinates, candidates []model.ZoneCandidate) *model.ZoneResolution {
	res := &model.ZoneResolution{
		Input:       input,
		Candidates:  candidates,
		Coordinates: coords,
	}

	official := pick(candidates, model.SourceExternalAPI)
	shapefile := pick(candidates, model.SourceShapefile)
	sehis := sehisOverride(candidates)

	switch {
	case official != nil:
		res.Zone = official.Zone
		res.Tier = model.TierOfficialAPI
		res.Confidence = official.Confidence

	case sehis != nil:
		res.Zone = sehis.Zone
		res.Confidence = sehis.Confidence
		switch {
		case disagrees(candidates, sehis.Zone):
			res.Tier = model.TierSEHISCorrected
		case agreeing(candidates, sehis.Zone) >= 2:
			res.Tier = model.TierCrossValidated
			res.Confidence = min(0.95, sehis.Confidence+crossValidationBonus)
		case sehis.Source == model.SourceShapefile:
			res.Tier = model.TierOfficialShapefile
		default:
			res.Tier = model.TierSEHISCorrected
		}

	case shapefile != nil && agreesIndependently(candidates, shapefile.Zone):
		res.Zone = shapefile.Zone
		res.Tier = model.TierCrossValidated
		res.Confidence = min(0.95, shapefile.Confidence+crossValidationBonus)

	case shapefile != nil:
		res.Zone = shapefile.Zone
		res.Tier = model.TierEstimatedReliable
		res.Confidence = shapefile.Confidence
		res.RequiresManualCheck = true

	case len(candidates) > 0:
		best := bestActionable(candidates)
		res.Zone = best.Zone
		res.Tier = model.TierEstimatedLow
		res.Confidence = best.Confidence
		res.RequiresManualCheck = true

	default:
		res.Zone = zonemap.DefaultZone
		res.Tier = model.TierUnknown
		res.Confidence = 0.3
		res.RequiresManualCheck = true
	}

	// Known corridor overrides beat every estimate, but never the
	// official cadastre.
	if res.Tier != model.TierOfficialAPI && input.Address != "" {
		if zone, ok := textmatch.ContextualOverride(input.Address); ok {
			res.Zone = zone
			res.Tier = model.TierEstimatedReliable
			if res.Confidence < 0.85 {
				res.Confidence = 0.85
			}
			res.RequiresManualCheck = false
		}
	}

	res.Conflicts = conflictsWith(candidates, res.Zone)
	if res.Coordinates == nil {
		for _, cand := range candidates {
			if cand.Coordinates != nil {
				res.Coordinates = cand.Coordinates
				break
			}
		}
	}
	return res
}

// pick returns the highest-confidence candidate from the given source
// that actually names a zone.
func pick(candidates []model.ZoneCandidate, source model.Source) *model.ZoneCandidate {
	for i := range candidates {
		if candidates[i].Source == source && candidates[i].Zone != "" {
			return &candidates[i]
		}
	}
	return nil
}

// sehisOverride finds a SEHIS answer strong enough to act on. Social
// housing zones are chronically mislabeled in derived datasets, so a
// confident SEHIS signal from any detector takes precedence over
// estimates.
func sehisOverride(candidates []model.ZoneCandidate) *model.ZoneCandidate {
	for i := range candidates {
		c := &candidates[i]
		if c.Zone == "SEHIS" && c.Confidence >= registration.ActionableConfidence {
			return c
		}
	}
	return nil
}

// agreeing counts sources naming the zone at actionable confidence.
func agreeing(candidates []model.ZoneCandidate, zone string) int {
	n := 0
	for _, c := range candidates {
		if c.Zone == zone && c.Confidence >= registration.ActionableConfidence {
			n++
		}
	}
	return n
}

// disagrees reports whether any candidate names a different zone.
func disagrees(candidates []model.ZoneCandidate, zone string) bool {
	for _, c := range candidates {
		if c.Zone != "" && c.Zone != zone {
			return true
		}
	}
	return false
}

// agreesIndependently reports whether a non-coordinate source at
// actionable confidence confirms the zone found at the coordinates.
// Below-threshold guesses do not count as confirmation.
func agreesIndependently(candidates []model.ZoneCandidate, zone string) bool {
	for _, c := range candidates {
		switch c.Source {
		case model.SourceShapefile, model.SourceExternalAPI:
			continue
		}
		if c.Zone == zone && c.Confidence >= registration.ActionableConfidence {
			return true
		}
	}
	return false
}

// bestActionable prefers candidates that name a zone; the slice is
// already rank-ordered, so the first named zone wins.
func bestActionable(candidates []model.ZoneCandidate) model.ZoneCandidate {
	for _, c := range candidates {
		if c.Zone != "" {
			return c
		}
	}
	return candidates[0]
}

// conflictsWith lists candidates whose answer differs from the chosen
// zone, for the audit trail.
func conflictsWith(candidates []model.ZoneCandidate, zone string) []string {
	var conflicts []string
	for _, c := range candidates {
		if c.Zone != "" && c.Zone != zone {
			conflicts = append(conflicts, fmt.Sprintf("%s=%s", c.Source, c.Zone))
		}
	}
	return conflicts
}
