package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"github.com/tckz/go-hit-counter/internal/config"
	"github.com/tckz/go-hit-counter/internal/counter"
	"github.com/tckz/go-hit-counter/internal/log"
	"github.com/tckz/go-hit-counter/internal/server"
	"github.com/tckz/go-hit-counter/internal/store"
	"go.uber.org/zap"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

func main() {
	godotenv.Load()

	config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	conf, err := config.Load(pflag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "*** config.Load: %v\n", err)
		os.Exit(1)
	}

	logger = log.Must(log.NewLogger(log.WithLogLevel(conf.LogLevel))).Sugar().With(zap.String("app", myName))
	defer logger.Sync()

	logger.Infof("ver=%s, args=%s", version, os.Args)
	defer logger.Infof("done")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, conf); err != nil {
		logger.Fatalf("*** run: %v", err)
	}
}

func run(ctx context.Context, conf *config.Config) error {
	st, err := store.Open(ctx, conf.Store)
	if err != nil {
		return fmt.Errorf("store.Open: %w", err)
	}
	defer st.Close()

	if store.IsVolatile(st) {
		logger.Warnf("store=%s keeps counts in memory only, they are lost on restart", conf.Store.Backend)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := counter.NewService(st,
		counter.WithLogger(logger),
		counter.WithMetrics(counter.NewMetrics(reg)),
	)

	srv := server.New(conf.Listen, svc,
		server.WithLogger(logger),
		server.WithGatherer(reg),
		server.WithStoreName(conf.Store.Backend),
		server.WithShutdownTimeout(conf.ShutdownTimeout),
	)
	return srv.Run(ctx)
}
