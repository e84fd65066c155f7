package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"pastelite/cfg"
	"pastelite/pkg/clock"
	"pastelite/svc/api"
	"pastelite/svc/store"
	"pastelite/svc/svc"
	"pastelite/svc/util"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-health" {
		os.Exit(healthCheck())
	}

	c, err := cfg.Load()
	if err != nil {
		util.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	if err := cfg.Validate(c); err != nil {
		util.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().
		Str("environment", c.Environment).
		Strs("allowed_origins", c.AllowedOrigins).
		Msg("starting pastelite API")
	if c.TestMode {
		util.Warn().Str("header", api.TestNowHeader).Msg("TEST_MODE enabled, request clock may be overridden")
	}

	st, err := store.New(store.Options{Capacity: c.StoreCapacity})
	if err != nil {
		util.Fatal().Err(err).Msg("failed to create paste store")
		os.Exit(1)
	}
	util.Info().Int("capacity", c.StoreCapacity).Msg("paste store initialized")

	pasteSvc := svc.NewPaste(st, c)
	clk := clock.Real{}
	server := api.NewServer(c, pasteSvc, clk)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)
	if c.SweeperEnabled() {
		g.Go(func() error {
			return store.StartSweeper(gctx, st, clk, c.SweepInterval)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		util.Info().Msg("shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		util.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	util.Info().Int("entries", st.Len()).Msg("shutdown complete")
}

func healthCheck() int {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://127.0.0.1:" + port + "/api/healthz")
	if err != nil {
		return 1
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}
