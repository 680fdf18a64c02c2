package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arkmint/arkmint/internal/server"
	"github.com/arkmint/arkmint/internal/service"
)

const banner = `
             _             _       _
  __ _  _ __| | __ _ __ (_) _ _ | |_
 / _' || '__| |/ /| '  \| || ' \|  _|
 \__,_||_|  |_|\_\|_|_|_|_||_||_|\__|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ARK minting and resolution server",
		Long:  "Start the HTTP server that mints, updates, and resolves ARK identifiers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logger := newLogger(dev)

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized",
		"driver", viper.GetString("storage.driver"), "data_dir", viper.GetString("storage.data_dir"))

	authSvc := service.NewAuthService(st)
	minter := service.NewMinter(st, logger)

	globalResolver := viper.GetString("resolver.global_url")
	resolver := service.NewResolver(st, globalResolver)

	cfg := server.Config{
		Host:               host,
		Port:               port,
		ShutdownTimeout:    30 * time.Second,
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: viper.GetInt("rate_limit.requests_per_minute"),
	}

	srv := server.New(cfg, st, authSvc, minter, resolver, logger)

	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ Mint:     POST http://%s:%d/mint\n", host, port)
	fmt.Printf("→ Update:   PUT  http://%s:%d/update\n", host, port)
	fmt.Printf("→ Resolve:  GET  http://%s:%d/ark:/<naan>/<name>\n", host, port)
	fmt.Printf("→ Health:   GET  http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}

// newLogger builds the process logger from log.level and log.format config;
// --dev forces debug level.
func newLogger(dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch viper.GetString("log.level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if viper.GetString("log.format") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
