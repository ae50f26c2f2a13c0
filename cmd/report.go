package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LeadTechMaster/API/internal/analytics"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Print the combined map data from stored listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		engine, err := newGeoEngine(st, cfg.Geo)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, engine.MapData(ctx))
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Print the marketing analytics summary from stored results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return printJSON(os.Stdout, analytics.New(st).Summary(ctx))
	},
}

func init() {
	rootCmd.AddCommand(mapCmd, analyticsCmd)
}
