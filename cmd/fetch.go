package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/LeadTechMaster/API/internal/source"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <endpoint>",
	Short: "Run one endpoint through the freshness cache and print the result",
	Long:  "Runs one registered endpoint, by name or slug, with the dashboard defaults unless --query or --location override them. Use --list to print the registered endpoints.",
	Args: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			return nil
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := source.NewRegistry()
		if list, _ := cmd.Flags().GetBool("list"); list {
			return printEndpoints(cmd, reg)
		}

		e, ok := reg.Lookup(args[0])
		if !ok {
			return eris.Errorf("unknown endpoint %q (known: %s)", args[0], strings.Join(reg.Names(), ", "))
		}
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc, err := newService(ctx, st, newCache(st, nil))
		if err != nil {
			return err
		}

		q := e.Default(dashboardDefaults(cfg.Dashboard))
		if v, _ := cmd.Flags().GetString("query"); v != "" {
			q.Query = v
		}
		if v, _ := cmd.Flags().GetString("location"); v != "" {
			q.Location = v
		}
		refresh, _ := cmd.Flags().GetBool("refresh")

		res := e.Run(ctx, svc, q, refresh)
		if err := printJSON(os.Stdout, res); err != nil {
			return err
		}
		if !res.OK() {
			return eris.Errorf("%s failed", e.Name)
		}
		return nil
	},
}

func printEndpoints(cmd *cobra.Command, reg *source.Registry) error {
	w := newTable(cmd.OutOrStdout())
	writeRow(w, "SLUG", "NAME", "CATEGORY")
	for _, e := range reg.Endpoints() {
		writeRow(w, e.Slug, e.Name, e.Category)
	}
	return w.Flush()
}

func init() {
	fetchCmd.Flags().String("query", "", "query override (default from dashboard config)")
	fetchCmd.Flags().String("location", "", "location override (default from dashboard config)")
	fetchCmd.Flags().Bool("refresh", false, "skip the cache and call the provider")
	fetchCmd.Flags().Bool("list", false, "list registered endpoints")
	rootCmd.AddCommand(fetchCmd)
}
