package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/followgraph/internal/infra/config"
	"github.com/mkrupp/followgraph/internal/infra/logging"
	"github.com/mkrupp/followgraph/internal/infra/transport/http"
	"github.com/mkrupp/followgraph/internal/repo/user"
	"github.com/mkrupp/followgraph/internal/svc/graphsvc"
)

const (
	appName = "graph"
	svcName = "graphsvc"
)

type Config struct {
	config.EnvConfig

	Log   logging.LoggerConfig         `envPrefix:"LOG_"`
	Graph graphsvc.GraphConfig         `envPrefix:"GRAPH_"`
	HTTP  graphsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	User  user.RepositoryConfig        `envPrefix:"USER_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.graphsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	repoFactory, err := user.RepositoryFactoryFromConfig(cfg.User)
	if err != nil {
		return fmt.Errorf("user repository: %w", err)
	}

	graphSvc, err := graphsvc.NewGraphService(repoFactory, cfg.Graph)
	if err != nil {
		return fmt.Errorf("new graph service: %w", err)
	}
	defer func() {
		err = errors.Join(err, graphSvc.Close())
	}()

	if cfg.Graph.SeedFile != "" {
		if _, err := graphSvc.Seed(ctx, cfg.Graph.SeedFile); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	httpTransport := graphsvc.NewHTTPTransport(graphSvc, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
