package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/guiamarela/zonecheck/internal/compliance"
	"github.com/guiamarela/zonecheck/internal/zonemap"
)

var zonesCmd = &cobra.Command{
	Use:   "zones [code]",
	Short: "List known zones or show one zone",
	Long:  "Without arguments, lists every zone in the registry with its legal parameters. With a code, shows that zone; raw variants like \"zr4\" or \"ZCC\" are accepted.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadParamsTable()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if len(args) == 1 {
			code := zonemap.Normalize(args[0])
			info, ok := zonemap.Lookup(code)
			if !ok {
				return eris.Errorf("main: unknown zone %q", args[0])
			}
			params, _ := table.Get(code)
			return enc.Encode(struct {
				zonemap.Info
				Params compliance.ZoneParams `json:"params"`
			}{info, params})
		}

		type entry struct {
			zonemap.Info
			Params compliance.ZoneParams `json:"params"`
		}
		var out []entry
		for _, info := range zonemap.All() {
			params, _ := table.Get(info.Code)
			out = append(out, entry{info, params})
		}
		return enc.Encode(out)
	},
}

var zonesImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import a zone parameter table from a spreadsheet",
	Long:  "Parses a parameter spreadsheet as published by the municipality and prints the table as YAML, ready to use via compliance.params_path.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := compliance.ImportXLSX(args[0])
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(table)
		if err != nil {
			return eris.Wrap(err, "main: marshal table")
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	zonesCmd.AddCommand(zonesImportCmd)
	rootCmd.AddCommand(zonesCmd)
}
