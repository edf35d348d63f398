package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/tckz/go-hit-counter/internal/config"
	"github.com/tckz/go-hit-counter/internal/counter"
	"github.com/tckz/go-hit-counter/internal/log"
	"github.com/tckz/go-hit-counter/internal/marker"
	"github.com/tckz/go-hit-counter/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optWorkers      = pflag.Int("workers", 4, "Number of workers")
	optSubscription = pflag.String("subscription", "", "subscription name")
	optMarkerTTL    = pflag.Duration("marker-ttl", 10*time.Minute, "How long a processed message id is remembered")
	optLogStep      = pflag.Int64("log-step", 1000, "How many hits between each log output")
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

	if *optSubscription == "" {
		logger.Fatalf("*** --subscription must be specified.")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, conf); err != nil {
		logger.Fatalf("*** run: %v", err)
	}
}

func run(ctx context.Context, conf *config.Config) error {
	pjID := os.Getenv("PROJECT_ID")
	cl, err := pubsub.NewClient(ctx, pjID)
	if err != nil {
		return fmt.Errorf("pubsub.NewClient: %w", err)
	}
	defer cl.Close()

	st, err := store.Open(ctx, conf.Store)
	if err != nil {
		return fmt.Errorf("store.Open: %w", err)
	}
	defer st.Close()

	var processMarker marker.ProcessMarker
	if len(conf.Store.Redis.Addrs) == 0 {
		processMarker = marker.NewLocalMarker(*optMarkerTTL)
	} else {
		rc := store.NewRedisClient(conf.Store.Redis)
		defer rc.Close()
		processMarker = marker.NewRedisMarker(rc, *optMarkerTTL)
	}

	h := &hitHandler{
		svc:     counter.NewService(st, counter.WithLogger(logger)),
		marker:  processMarker,
		logStep: *optLogStep,
	}

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *optWorkers; i++ {
		eg.Go(func() error {
			subs := cl.Subscription(*optSubscription)
			return subs.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
				if h.process(ctx, msg.ID, counterID(msg)) {
					msg.Ack()
				} else {
					msg.Nack()
				}
			})
		})
	}

	logger.Infof("Waiting goroutines exit")
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("Wait: %w", err)
	}
	logger.Infof("processed=%d", h.Processed())
	return nil
}
