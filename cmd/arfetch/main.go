package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/arvos-app/arvos-fetch/internal/app"
	"github.com/arvos-app/arvos-fetch/internal/config"
	"github.com/arvos-app/arvos-fetch/internal/dispatch"
	"github.com/arvos-app/arvos-fetch/internal/fetch"
	"github.com/arvos-app/arvos-fetch/internal/logger"
)

// Build information, overridden by ldflags.
var version = "development"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "arfetch: %v\n", err)
		code := 1
		if ec, ok := err.(cli.ExitCoder); ok {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "arfetch",
		Usage:     "Fetch augment documents and textures for an AR session.",
		UsageText: "arfetch [global options] command <url>...",
		Version:   version,
		Writer:    out,
		// Exit codes are applied in main so Run always returns.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "simulate",
				Usage: "Serve known URLs from bundled fixtures instead of the network",
			},
			&cli.IntFlag{
				Name:  "pool",
				Usage: "Maximum concurrent fetches (overrides POOL_SIZE)",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Image cache backend: `none`, memory, bbolt or tiered (overrides CACHE_TYPE)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "text",
				Usage:     "Fetch text documents, stripping '#' comment lines",
				ArgsUsage: "<url>...",
				Action:    fetchAction(dispatch.Text),
			},
			{
				Name:      "image",
				Usage:     "Fetch and decode images through the image cache",
				ArgsUsage: "<url>...",
				Action:    fetchAction(dispatch.Image),
			},
			{
				Name:      "url",
				Usage:     "Print the decorated request URL for a text fetch",
				ArgsUsage: "<url>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("url expects exactly one argument", 2)
					}
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, fetch.BuildURL(c.Args().First(), cfg.Session()))
					return nil
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.IsSet("simulate") {
		cfg.SimulateWeb = c.Bool("simulate")
	}
	if c.IsSet("pool") {
		if c.Int("pool") <= 0 {
			return nil, cli.Exit("--pool must be positive", 2)
		}
		cfg.PoolSize = c.Int("pool")
	}
	if c.IsSet("cache") {
		cfg.CacheType = c.String("cache")
	}
	return cfg, nil
}

func fetchAction(res dispatch.Resource) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit(fmt.Sprintf("%s expects at least one url", res), 2)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		log, err := logger.Init(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Close()

		ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := app.NewRuntime(ctx, cfg, log)
		if err != nil {
			logger.ErrorObj("failed to initialize runtime", "error", err)
			return err
		}
		defer func() {
			if err := rt.Close(); err != nil {
				logger.ErrorObj("runtime close failed", "error", err)
			}
		}()

		results, fetchErr := rt.Fetch(ctx, res, c.Args().Slice())
		failed := printResults(c.App.Writer, results)
		if fetchErr != nil {
			return fetchErr
		}
		if failed > 0 {
			return cli.Exit(fmt.Sprintf("%d of %d fetches failed", failed, len(results)), 1)
		}
		return nil
	}
}

// printResults writes one tab-separated line per delivered result and returns the failure count.
func printResults(w io.Writer, results []dispatch.Result) int {
	failed := 0
	for _, res := range results {
		if res.Status == "" {
			continue
		}
		detail := res.Payload
		if res.OK() && res.Image != nil {
			b := res.Image.Bounds()
			detail = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
		}
		if !res.OK() {
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.URL, res.Status, detail)
	}
	return failed
}
