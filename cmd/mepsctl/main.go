// mepsctl is the operator CLI for the model registry: it registers trained
// runs, promotes versions between stages, and resolves the current version at
// a stage. Registry operations run out-of-band of the prediction path.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"meps-serve/internal/cfg"
	"meps-serve/internal/pipeline"
	"meps-serve/internal/registry"
	"meps-serve/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: mepsctl [flags] <command> [args]

Commands:
  register <run-id>            Register a trained run as a new model version
  promote <version> <stage>    Transition a version to a stage (None, Staging, Production, Archived)
  fetch <stage>                Resolve the current version at a stage
  list                         List all registered versions

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		modelName = flag.String("model", "", "Model name (overrides config)")
		logLevel  = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
		timeout   = flag.Duration("timeout", 10*time.Second, "Operation timeout")
	)
	flag.Usage = usage
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	name := c.ModelName
	if *modelName != "" {
		name = *modelName
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reg, cleanup, err := buildRegistry(c, name)
	if err != nil {
		log.Fatal().Err(err).Msg("registry initialization failed")
	}
	defer cleanup()

	if err := run(ctx, reg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildRegistry wires the registry against the configured tracking store: the
// external REST server when TRACKING_URL is set, otherwise the local
// file-backed store under DATA_PATH.
func buildRegistry(c cfg.Settings, name string) (*registry.Registry, func(), error) {
	// Artifacts are resolved by the fixed file convention under the models
	// directory; the version's run reference is registry metadata only.
	loader := func(source string) (map[string]*pipeline.Pipeline, error) {
		return pipeline.LoadDir(c.ModelsDir, pipeline.DefaultSymbols())
	}

	if c.TrackingURL != "" {
		store := registry.NewRESTStore(c.TrackingURL, c.TrackingTimeout)
		return registry.New(name, store, loader), func() {}, nil
	}

	dataPath := c.DataPath
	if dataPath == "" {
		dataPath = "."
	}
	store, err := storage.New(dataPath)
	if err != nil {
		return nil, nil, err
	}
	return registry.New(name, store, loader), func() { store.Close() }, nil
}

func run(ctx context.Context, reg *registry.Registry, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("no command given")
	}

	switch args[0] {
	case "register":
		if len(args) != 2 {
			return errors.New("usage: register <run-id>")
		}
		mv, err := reg.Register(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("registered %s version %d (run %s)\n", mv.Name, mv.Version, mv.RunID)
		return nil

	case "promote":
		if len(args) != 3 {
			return errors.New("usage: promote <version> <stage>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := reg.TransitionStage(ctx, version, registry.Stage(args[2])); err != nil {
			return err
		}
		fmt.Printf("version %d transitioned to %s\n", version, args[2])
		return nil

	case "fetch":
		if len(args) != 2 {
			return errors.New("usage: fetch <stage>")
		}
		mv, pipes, err := reg.FetchLatest(ctx, registry.Stage(args[1]))
		if errors.Is(err, registry.ErrNoVersionAtStage) {
			fmt.Printf("no version at stage %s\n", args[1])
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version %d (run %s) at stage %s, %d pipelines\n", mv.Version, mv.RunID, mv.CurrentStage, len(pipes))
		return nil

	case "list":
		versions, err := reg.List(ctx)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("no versions registered")
			return nil
		}
		for _, mv := range versions {
			fmt.Printf("v%-4d %-12s run=%s created=%s\n", mv.Version, mv.CurrentStage, mv.RunID, mv.CreatedAt.Format(time.RFC3339))
		}
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}
