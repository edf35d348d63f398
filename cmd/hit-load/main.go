package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/tckz/go-hit-counter/internal/client"
	"github.com/tckz/go-hit-counter/internal/log"
	vh "github.com/tckz/vegetahelper"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optRate = &vh.RateFlag{
		Rate: &vegeta.Rate{
			Freq: 30,
			Per:  1 * time.Second,
		}}
	optDuration = flag.Duration("duration", 10*time.Second, "Duration of the test [0 = forever]")
	optOutput   = flag.String("output", "", "/path/to/results.bin or 'stdout'")
	optWorkers  = flag.Uint64("workers", vegeta.DefaultWorkers, "Number of workers")
	optLogLevel = flag.String("log-level", "info", "info|warn|error")
	optURL      = flag.String("url", "http://localhost:8080/", "Counter endpoint")
	optIDs      = flag.String("ids", "", "Comma separated counter ids to hit, a random uuid per hit when empty")
	optMode     = flag.String("mode", modeIncr, "incr|get|badge")
)

const (
	modeIncr  = "incr"
	modeGet   = "get"
	modeBadge = "badge"
)

func setup() {
	godotenv.Load()

	flag.Var(optRate, "rate", "Number of requests per time unit")
	flag.Parse()

	logger = log.Must(log.NewLogger(log.WithLogLevel(*optLogLevel))).Sugar().With(zap.String("app", myName))
}

type nopWriteCloser struct {
	io.Writer
}

func (c nopWriteCloser) Close() error {
	return nil
}

func openResultFile(out string) (io.WriteCloser, error) {
	switch out {
	case "stdout":
		return &nopWriteCloser{os.Stdout}, nil
	default:
		return os.Create(out)
	}
}

func parseIDs(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(v string, _ int) string { return strings.TrimSpace(v) }))
}

// pickID returns a random member of ids, or a fresh id when ids is empty.
func pickID(ids []string) string {
	if len(ids) == 0 {
		return uuid.New().String()
	}
	return ids[rand.Intn(len(ids))]
}

func hitFunc(cl *client.Client, mode string, ids []string) (func(ctx context.Context) (*vh.HitResult, error), error) {
	var call func(ctx context.Context, id string) error
	switch mode {
	case modeIncr:
		call = func(ctx context.Context, id string) error {
			_, err := cl.Increment(ctx, id)
			return err
		}
	case modeGet:
		call = func(ctx context.Context, id string) error {
			_, err := cl.Get(ctx, id)
			return err
		}
	case modeBadge:
		call = func(ctx context.Context, id string) error {
			_, err := cl.Badge(ctx, id)
			return err
		}
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}

	return func(ctx context.Context) (result *vh.HitResult, retErr error) {
		if err := call(ctx, pickID(ids)); err != nil {
			return nil, err
		}
		return result, nil
	}, nil
}

func main() {
	setup()
	logger.Infof("ver=%s, args=%s", version, os.Args)

	if *optOutput == "" {
		logger.Fatalf("*** --output must be specified.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cl, err := client.New(*optURL)
	if err != nil {
		logger.Fatalf("*** client.New: %v", err)
	}

	hit, err := hitFunc(cl, *optMode, parseIDs(*optIDs))
	if err != nil {
		logger.Fatalf("*** hitFunc: %v", err)
	}

	atk := vh.NewAttacker(hit, vh.WithWorkers(*optWorkers))
	res := atk.Attack(ctx, *optRate.Rate, *optDuration, "hit-counter-"+*optMode)

	out, err := openResultFile(*optOutput)
	if err != nil {
		logger.Fatal(err)
	}
	defer out.Close()
	enc := vegeta.NewEncoder(out)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT)

loop:
	for {
		select {
		case s := <-sig:
			logger.Infof("Received signal: %s", s)
			cancel()
			// keep loop until 'res' is closed.
		case r, ok := <-res:
			if !ok {
				break loop
			}
			if err := enc.Encode(r); err != nil {
				logger.Errorf("*** Encode: %v", err)
				break loop
			}
		}
	}

	cancel()
}
