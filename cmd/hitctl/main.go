package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/tckz/go-hit-counter/internal/client"
)

var version string

type Globals struct {
	URL     string        `help:"Counter endpoint." default:"http://localhost:8080/" env:"HITCTL_URL"`
	Timeout time.Duration `help:"Request timeout." default:"10s"`

	stdout io.Writer
}

func (g *Globals) client() (*client.Client, error) {
	return client.New(g.URL, client.WithHTTPClient(&http.Client{Timeout: g.Timeout}))
}

type CLI struct {
	Globals

	Get     GetCmd           `cmd:"" help:"Show the current count."`
	Incr    IncrCmd          `cmd:"" help:"Add one hit."`
	Reset   ResetCmd         `cmd:"" help:"Set the count back to 0."`
	Badge   BadgeCmd         `cmd:"" help:"Write the SVG badge."`
	Publish PublishCmd       `cmd:"" help:"Publish hits to a Pub/Sub topic for hit-subscriber."`
	Version kong.VersionFlag `help:"Print version."`
}

type GetCmd struct {
	ID string `arg:"" optional:"" help:"Counter id." default:"default"`
}

func (c *GetCmd) Run(g *Globals) error {
	cl, err := g.client()
	if err != nil {
		return err
	}
	res, err := cl.Get(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("Get: %w", err)
	}
	return g.print(res)
}

type IncrCmd struct {
	ID string `arg:"" optional:"" help:"Counter id." default:"default"`
}

func (c *IncrCmd) Run(g *Globals) error {
	cl, err := g.client()
	if err != nil {
		return err
	}
	res, err := cl.Increment(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("Increment: %w", err)
	}
	return g.print(res)
}

type ResetCmd struct {
	ID string `arg:"" optional:"" help:"Counter id." default:"default"`
}

func (c *ResetCmd) Run(g *Globals) error {
	cl, err := g.client()
	if err != nil {
		return err
	}
	res, err := cl.Reset(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("Reset: %w", err)
	}
	return g.print(res)
}

type BadgeCmd struct {
	ID  string `arg:"" optional:"" help:"Counter id." default:"default"`
	Out string `help:"path/to/badge.svg, stdout when empty." type:"path"`
}

func (c *BadgeCmd) Run(g *Globals) error {
	cl, err := g.client()
	if err != nil {
		return err
	}
	b, err := cl.Badge(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("Badge: %w", err)
	}
	if c.Out == "" {
		_, err := g.stdout.Write(b)
		return err
	}
	return os.WriteFile(c.Out, b, 0o644)
}

type PublishCmd struct {
	ID      string `arg:"" optional:"" help:"Counter id." default:"default"`
	Project string `help:"GCP project." env:"PROJECT_ID" required:""`
	Topic   string `help:"Topic name." required:""`
	Count   int    `help:"Number of hits to publish." default:"1"`
}

func (c *PublishCmd) Run(g *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), g.Timeout)
	defer cancel()

	cl, err := pubsub.NewClient(ctx, c.Project)
	if err != nil {
		return fmt.Errorf("pubsub.NewClient: %w", err)
	}
	defer cl.Close()

	topic := cl.Topic(c.Topic)
	defer topic.Stop()

	results := make([]*pubsub.PublishResult, 0, c.Count)
	for i := 0; i < c.Count; i++ {
		results = append(results, topic.Publish(ctx, &pubsub.Message{
			Data:       []byte(c.ID),
			Attributes: map[string]string{"id": c.ID},
		}))
	}
	for _, r := range results {
		msgID, err := r.Get(ctx)
		if err != nil {
			return fmt.Errorf("Publish: %w", err)
		}
		fmt.Fprintln(g.stdout, msgID)
	}
	return nil
}

func (g *Globals) print(v interface{}) error {
	enc := json.NewEncoder(g.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("hitctl"),
		kong.Description("Talk to a hit-counter server."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	}, opts...)...)
}

func run(args []string, stdout io.Writer) error {
	cli := CLI{Globals: Globals{stdout: stdout}}
	parser, err := newParser(&cli)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(&cli.Globals)
}

func main() {
	godotenv.Load()

	cli := CLI{Globals: Globals{stdout: os.Stdout}}
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	parser.FatalIfErrorf(ctx.Run(&cli.Globals))
}
