package main

import (
	"context"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deedshare/config"
	"deedshare/core"
	"deedshare/observability/logging"
	telemetry "deedshare/observability/otel"
	"deedshare/rpc"
	"deedshare/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	metricsAddr := flag.String("metrics", "", "Optional listen address for the Prometheus /metrics endpoint")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("DEEDSHARE_ENV"))
	logger := logging.Setup("deedshared", env)

	shutdownTelemetry := setupTelemetry(env, logger)
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	admin, err := cfg.Admin()
	if err != nil {
		logger.Error("invalid admin address", slog.Any("error", err))
		os.Exit(1)
	}
	treasury, err := cfg.Treasury()
	if err != nil {
		logger.Error("invalid treasury address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.String("path", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	genesis, err := buildGenesis(cfg)
	if err != nil {
		logger.Error("invalid genesis allocations", slog.Any("error", err))
		os.Exit(1)
	}

	node, err := core.NewNode(db, core.Params{
		Admin:    admin,
		Treasury: treasury,
		FeeBps:   cfg.FeeBps,
	}, genesis)
	if err != nil {
		logger.Error("failed to start node", slog.Any("error", err))
		os.Exit(1)
	}

	if addr := strings.TrimSpace(*metricsAddr); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("serving metrics", slog.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	logger.Info("starting deedshared",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
		slog.Uint64("feeBps", uint64(cfg.FeeBps)),
	)
	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// setupTelemetry wires the OTLP exporters when an endpoint is configured via
// the standard OTEL environment variables. Returns a nil shutdown func when
// telemetry is disabled.
func setupTelemetry(env string, logger *slog.Logger) func(context.Context) error {
	endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if endpoint == "" {
		return nil
	}
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	shutdown, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "deedshared",
		Environment: env,
		Endpoint:    endpoint,
		Insecure:    insecure,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		logger.Error("init telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	return shutdown
}

func buildGenesis(cfg *config.Config) (*core.Genesis, error) {
	if len(cfg.GenesisAlloc) == 0 {
		return nil, nil
	}
	genesis := &core.Genesis{Allocations: make([]core.GenesisAlloc, 0, len(cfg.GenesisAlloc))}
	for _, alloc := range cfg.GenesisAlloc {
		addr, err := config.ParseAddress(alloc.Address)
		if err != nil {
			return nil, err
		}
		balance, err := config.ParseBalance(alloc.Balance)
		if err != nil {
			return nil, err
		}
		if balance.Sign() == 0 {
			continue
		}
		genesis.Allocations = append(genesis.Allocations, core.GenesisAlloc{
			Address: addr,
			Balance: new(big.Int).Set(balance),
		})
	}
	return genesis, nil
}
