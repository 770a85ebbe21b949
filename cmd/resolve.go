package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/guiamarela/zonecheck/internal/model"
)

var (
	resolveAddress      string
	resolveRegistration string
	resolveLat          float64
	resolveLon          float64
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the zoning designation of a lot",
	Long:  "Resolves the zone from any combination of address, municipal registration and WGS84 coordinates, and prints the consolidated resolution as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := model.ResolveInput{
			Address:      resolveAddress,
			Registration: resolveRegistration,
		}
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
				return eris.New("main: --lat and --lon must be given together")
			}
			input.Coordinates = &model.Coordinates{Lat: resolveLat, Lon: resolveLon}
		}
		if input.Empty() {
			return eris.New("main: provide --address, --registration or --lat/--lon")
		}

		env, err := initEnv(cmd.Context(), "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Resolver.Resolve(cmd.Context(), input)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveAddress, "address", "", "street address, e.g. \"Rua XV de Novembro, 100\"")
	resolveCmd.Flags().StringVar(&resolveRegistration, "registration", "", "municipal registration number (indicação fiscal)")
	resolveCmd.Flags().Float64Var(&resolveLat, "lat", 0, "latitude (WGS84)")
	resolveCmd.Flags().Float64Var(&resolveLon, "lon", 0, "longitude (WGS84)")
	rootCmd.AddCommand(resolveCmd)
}
