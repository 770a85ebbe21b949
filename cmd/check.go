package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/guiamarela/zonecheck/internal/model"
)

var (
	checkZone        string
	checkMetricsFile string
	checkMetrics     model.ProjectMetrics
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a construction project against zone parameters",
	Long:  "Compares project metrics against the legal limits of a zone and prints the compliance report as JSON. Metrics can come from flags or a JSON file; flags win.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkZone == "" {
			return eris.New("main: --zone is required")
		}

		metrics := model.ProjectMetrics{}
		if checkMetricsFile != "" {
			data, err := os.ReadFile(checkMetricsFile)
			if err != nil {
				return eris.Wrap(err, "main: read metrics file")
			}
			if err := json.Unmarshal(data, &metrics); err != nil {
				return eris.Wrap(err, "main: parse metrics file")
			}
		}
		mergeMetricFlags(cmd, &metrics)

		env, err := initEnv(cmd.Context(), "check")
		if err != nil {
			return err
		}
		defer env.Close()

		report := env.Engine.Check(checkZone, metrics)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// mergeMetricFlags overlays explicitly set flags onto metrics loaded
// from a file.
func mergeMetricFlags(cmd *cobra.Command, metrics *model.ProjectMetrics) {
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("lot-area", func() { metrics.LotAreaM2 = checkMetrics.LotAreaM2 })
	set("occupancy", func() { metrics.OccupancyRatePct = checkMetrics.OccupancyRatePct })
	set("far", func() { metrics.FloorAreaRatio = checkMetrics.FloorAreaRatio })
	set("height", func() { metrics.HeightM = checkMetrics.HeightM })
	set("floors", func() { metrics.Floors = checkMetrics.Floors })
	set("front-setback", func() { metrics.FrontSetbackM = checkMetrics.FrontSetbackM })
	set("side-setback", func() { metrics.SideSetbackM = checkMetrics.SideSetbackM })
	set("rear-setback", func() { metrics.RearSetbackM = checkMetrics.RearSetbackM })
	set("permeable", func() { metrics.PermeableAreaPct = checkMetrics.PermeableAreaPct })
	set("units", func() { metrics.DwellingUnits = checkMetrics.DwellingUnits })
	set("parking", func() { metrics.ParkingSpaces = checkMetrics.ParkingSpaces })
	set("accessible-parking", func() { metrics.AccessibleParking = checkMetrics.AccessibleParking })
	set("senior-parking", func() { metrics.SeniorParking = checkMetrics.SeniorParking })
}

func init() {
	checkCmd.Flags().StringVar(&checkZone, "zone", "", "zone code, e.g. ZR-2")
	checkCmd.Flags().StringVar(&checkMetricsFile, "file", "", "JSON file with project metrics")
	checkCmd.Flags().Float64Var(&checkMetrics.LotAreaM2, "lot-area", 0, "lot area in m²")
	checkCmd.Flags().Float64Var(&checkMetrics.OccupancyRatePct, "occupancy", 0, "occupancy rate in percent")
	checkCmd.Flags().Float64Var(&checkMetrics.FloorAreaRatio, "far", 0, "floor area ratio")
	checkCmd.Flags().Float64Var(&checkMetrics.HeightM, "height", 0, "building height in meters")
	checkCmd.Flags().IntVar(&checkMetrics.Floors, "floors", 0, "number of floors")
	checkCmd.Flags().Float64Var(&checkMetrics.FrontSetbackM, "front-setback", 0, "front setback in meters")
	checkCmd.Flags().Float64Var(&checkMetrics.SideSetbackM, "side-setback", 0, "side setback in meters")
	checkCmd.Flags().Float64Var(&checkMetrics.RearSetbackM, "rear-setback", 0, "rear setback in meters")
	checkCmd.Flags().Float64Var(&checkMetrics.PermeableAreaPct, "permeable", 0, "permeable area in percent")
	checkCmd.Flags().IntVar(&checkMetrics.DwellingUnits, "units", 0, "dwelling units")
	checkCmd.Flags().IntVar(&checkMetrics.ParkingSpaces, "parking", 0, "total parking spaces")
	checkCmd.Flags().IntVar(&checkMetrics.AccessibleParking, "accessible-parking", 0, "accessible parking spaces")
	checkCmd.Flags().IntVar(&checkMetrics.SeniorParking, "senior-parking", 0, "senior parking spaces")
	rootCmd.AddCommand(checkCmd)
}
