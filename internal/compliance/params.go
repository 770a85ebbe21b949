// Package compliance checks proposed construction metrics against the
// per-zone legal parameter table of Lei 15.511/2019.
package compliance

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed params.yaml
var defaultParams []byte

// ZoneParams are the legal limits for one zone. Setbacks and permeability
// bind as minimums, the rest as maximums.
type ZoneParams struct {
	OccupancyRateMax  float64 `yaml:"occupancy_rate_max" json:"occupancy_rate_max"`
	FloorAreaRatioMax float64 `yaml:"floor_area_ratio_max" json:"floor_area_ratio_max"`
	HeightMMax        float64 `yaml:"height_m_max" json:"height_m_max"`
	FloorsMax         int     `yaml:"floors_max" json:"floors_max"`
	FrontSetbackMin   float64 `yaml:"front_setback_min" json:"front_setback_min"`
	SideSetbackMin    float64 `yaml:"side_setback_min" json:"side_setback_min"`
	RearSetbackMin    float64 `yaml:"rear_setback_min" json:"rear_setback_min"`
	PermeableAreaMin  float64 `yaml:"permeable_area_min" json:"permeable_area_min"`
}

// Table maps canonical zone codes to their parameters.
type Table struct {
	Zones map[string]ZoneParams `yaml:"zones"`
}

// DefaultTable returns the embedded parameter table.
func DefaultTable() (*Table, error) {
	return parseTable(defaultParams)
}

// LoadTable reads a parameter table from a YAML file, for overriding the
// embedded defaults.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "compliance: read params %s", path)
	}
	return parseTable(data)
}

func parseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "compliance: parse params")
	}
	if len(t.Zones) == 0 {
		return nil, eris.New("compliance: empty parameter table")
	}
	return &t, nil
}

// Get returns the parameters for a canonical zone code.
func (t *Table) Get(zone string) (ZoneParams, bool) {
	p, ok := t.Zones[zone]
	return p, ok
}
