package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeadTechMaster/API/internal/analytics"
	"github.com/LeadTechMaster/API/internal/dashboard"
	"github.com/LeadTechMaster/API/internal/metrics"
	"github.com/LeadTechMaster/API/internal/source"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		m := metrics.New()
		c := newCache(st, m)
		svc, err := newService(ctx, st, c)
		if err != nil {
			return err
		}
		engine, err := newGeoEngine(st, cfg.Geo)
		if err != nil {
			return err
		}

		server := dashboard.New(dashboard.Deps{
			Registry:  source.NewRegistry(),
			Service:   svc,
			Cache:     c,
			Store:     st,
			Geo:       engine,
			Analytics: analytics.New(st),
			Metrics:   m,
			Defaults:  dashboardDefaults(cfg.Dashboard),
			Fanout:    cfg.Dashboard.FanoutConcurrency,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("session_id", svc.SessionID()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
