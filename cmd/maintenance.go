package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeadTechMaster/API/internal/export"
	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		zap.L().Info("schema applied", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete provider call records older than a cutoff",
	RunE: func(cmd *cobra.Command, _ []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return eris.New("--older-than must be positive")
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.PruneCalls(ctx, time.Now().Add(-olderThan))
		if err != nil {
			return eris.Wrap(err, "prune")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d call records older than %s.\n", n, olderThan)
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage collection sessions",
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the current session of a market",
	RunE: func(cmd *cobra.Command, _ []string) error {
		industry, _ := cmd.Flags().GetString("industry")
		location, _ := cmd.Flags().GetString("location")
		if industry == "" {
			industry = cfg.Dashboard.Industry
		}
		if location == "" {
			location = cfg.Dashboard.Location
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sess, err := st.CurrentSession(ctx, industry, location)
		if err != nil {
			return eris.Wrap(err, "session close")
		}
		if err := st.CloseSession(ctx, sess.ID); err != nil {
			return eris.Wrap(err, "session close")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Closed session %s (%s).\n", sess.ID, sess.Name)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored business listings to a spreadsheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("out")
		platforms, _ := cmd.Flags().GetStringSlice("platform")

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter := store.BusinessFilter{OrderByReviews: true}
		for _, p := range platforms {
			filter.Platforms = append(filter.Platforms, model.Platform(p))
		}
		listings, err := st.ListBusinesses(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrap(err, "export: create file")
		}
		if err := export.WriteListings(f, listings); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "export: close file")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d listings to %s.\n", len(listings), out)
		return nil
	},
}

func init() {
	pruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "delete call records older than this (e.g. 720h)")

	sessionCloseCmd.Flags().String("industry", "", "industry (default from dashboard config)")
	sessionCloseCmd.Flags().String("location", "", "location (default from dashboard config)")
	sessionCmd.AddCommand(sessionCloseCmd)

	exportCmd.Flags().String("out", "listings.xlsx", "output file")
	exportCmd.Flags().StringSlice("platform", nil, "only export these platforms (maps, yelp, local_pack, tripadvisor)")

	rootCmd.AddCommand(migrateCmd, pruneCmd, sessionCmd, exportCmd)
}
