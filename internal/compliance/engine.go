package compliance

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/guiamarela/zonecheck/internal/model"
	"github.com/guiamarela/zonecheck/internal/zonemap"
)

// Parking quotas, ABNT NBR 9050 / municipal code: 2% accessible and 5%
// senior spaces, both rounded up.
const (
	AccessibleParkingRate = 0.02
	SeniorParkingRate     = 0.05
)

// MaxDwellingUnitsLowDensity caps units per lot in ZR-1/ZR-2 style zones.
const MaxDwellingUnitsLowDensity = 2

// Engine evaluates project metrics against a parameter table.
type Engine struct {
	table *Table
	now   func() time.Time
}

// NewEngine creates an engine over the given table.
func NewEngine(table *Table) *Engine {
	return &Engine{table: table, now: time.Now}
}

// WithNow fixes the report timestamp for testing.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Table exposes the parameter table backing the engine.
func (e *Engine) Table() *Table {
	return e.table
}

// Check compares the project against the zone's limits. Metrics left at
// their zero value are treated as not provided and skipped. An unknown
// zone yields a report with ZoneValid=false and no verdicts.
func (e *Engine) Check(zone string, m model.ProjectMetrics) model.ComplianceReport {
	canonical := zonemap.Normalize(zone)
	report := model.ComplianceReport{
		Zone:      canonical,
		CheckedAt: e.now().UTC(),
	}

	params, ok := e.table.Get(canonical)
	if !ok {
		report.Notes = append(report.Notes, fmt.Sprintf("zone %q has no parameter coverage", canonical))
		zap.L().Warn("compliance: unknown zone", zap.String("zone", canonical))
		return report
	}
	report.ZoneValid = true

	var verdicts []model.ParameterVerdict
	addMax := func(name string, actual, limit float64) {
		if actual == 0 {
			return
		}
		verdicts = append(verdicts, model.ParameterVerdict{
			Parameter: name,
			Kind:      model.LimitMax,
			Limit:     limit,
			Actual:    actual,
			Compliant: actual <= limit,
			Margin:    limit - actual,
		})
	}
	addMin := func(name string, actual, limit float64) {
		if actual == 0 {
			return
		}
		verdicts = append(verdicts, model.ParameterVerdict{
			Parameter: name,
			Kind:      model.LimitMin,
			Limit:     limit,
			Actual:    actual,
			Compliant: actual >= limit,
			Margin:    actual - limit,
		})
	}

	addMax("occupancy_rate_pct", m.OccupancyRatePct, params.OccupancyRateMax)
	addMax("floor_area_ratio", m.FloorAreaRatio, params.FloorAreaRatioMax)
	addMax("height_m", m.HeightM, params.HeightMMax)
	addMax("floors", float64(m.Floors), float64(params.FloorsMax))
	addMin("front_setback_m", m.FrontSetbackM, params.FrontSetbackMin)
	addMin("side_setback_m", m.SideSetbackM, params.SideSetbackMin)
	addMin("rear_setback_m", m.RearSetbackM, params.RearSetbackMin)
	addMin("permeable_area_pct", m.PermeableAreaPct, params.PermeableAreaMin)

	if m.ParkingSpaces > 0 {
		requiredAccessible := float64(ceilRate(m.ParkingSpaces, AccessibleParkingRate))
		requiredSenior := float64(ceilRate(m.ParkingSpaces, SeniorParkingRate))
		verdicts = append(verdicts,
			model.ParameterVerdict{
				Parameter: "accessible_parking",
				Kind:      model.LimitMin,
				Limit:     requiredAccessible,
				Actual:    float64(m.AccessibleParking),
				Compliant: float64(m.AccessibleParking) >= requiredAccessible,
				Margin:    float64(m.AccessibleParking) - requiredAccessible,
			},
			model.ParameterVerdict{
				Parameter: "senior_parking",
				Kind:      model.LimitMin,
				Limit:     requiredSenior,
				Actual:    float64(m.SeniorParking),
				Compliant: float64(m.SeniorParking) >= requiredSenior,
				Margin:    float64(m.SeniorParking) - requiredSenior,
			},
		)
	}

	if m.DwellingUnits > 0 && zonemap.LowDensityResidential(canonical) {
		verdicts = append(verdicts, model.ParameterVerdict{
			Parameter: "dwelling_units",
			Kind:      model.LimitMax,
			Limit:     MaxDwellingUnitsLowDensity,
			Actual:    float64(m.DwellingUnits),
			Compliant: m.DwellingUnits <= MaxDwellingUnitsLowDensity,
			Margin:    float64(MaxDwellingUnitsLowDensity - m.DwellingUnits),
		})
		if m.DwellingUnits > MaxDwellingUnitsLowDensity {
			report.Notes = append(report.Notes,
				fmt.Sprintf("%d dwelling units exceed the low-density residential cap of %d", m.DwellingUnits, MaxDwellingUnitsLowDensity))
		}
	}

	report.Verdicts = verdicts
	report.Conforming = true
	for _, v := range verdicts {
		if !v.Compliant {
			report.Conforming = false
			break
		}
	}
	return report
}

// RequiredAccessibleParking returns the accessible quota for a lot.
func RequiredAccessibleParking(total int) int {
	return ceilRate(total, AccessibleParkingRate)
}

// RequiredSeniorParking returns the senior quota for a lot.
func RequiredSeniorParking(total int) int {
	return ceilRate(total, SeniorParkingRate)
}

func ceilRate(total int, rate float64) int {
	return int(math.Ceil(float64(total) * rate))
}
