package compliance

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/guiamarela/zonecheck/internal/zonemap"
)

// ImportXLSX reads a parameter table from a spreadsheet. The first sheet
// must carry one row per zone with columns: zone code, occupancy rate,
// floor area ratio, height (m), floors, front/side/rear setbacks (m),
// permeable area. Values may use Brazilian decimal commas and unit
// suffixes ("60%", "7,5 m").
func ImportXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "compliance: open spreadsheet %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("compliance: %s has no sheets", path)
	}

	t := &Table{Zones: make(map[string]ZoneParams)}
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue // header
		}
		if len(row.Cells) < 9 {
			continue
		}

		zone := zonemap.Normalize(row.Cells[0].String())
		if zone == "" {
			continue
		}

		vals := make([]float64, 8)
		ok := true
		for j := 0; j < 8; j++ {
			v, parseErr := parseCell(row.Cells[j+1].String())
			if parseErr != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}

		t.Zones[zone] = ZoneParams{
			OccupancyRateMax:  vals[0],
			FloorAreaRatioMax: vals[1],
			HeightMMax:        vals[2],
			FloorsMax:         int(vals[3]),
			FrontSetbackMin:   vals[4],
			SideSetbackMin:    vals[5],
			RearSetbackMin:    vals[6],
			PermeableAreaMin:  vals[7],
		}
	}

	if len(t.Zones) == 0 {
		return nil, eris.Errorf("compliance: no parameter rows in %s", path)
	}
	return t, nil
}

// parseCell extracts a number from a spreadsheet cell, tolerating decimal
// commas and trailing units.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimRight(s, "%m ")
	if s == "" {
		return 0, eris.New("compliance: empty cell")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "compliance: parse cell %q", s)
	}
	return v, nil
}
