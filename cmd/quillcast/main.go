package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quillcast/quillcast/internal/config"
	"github.com/quillcast/quillcast/internal/console"
	"github.com/quillcast/quillcast/internal/logging"
	"github.com/quillcast/quillcast/internal/pipeline"
	"github.com/quillcast/quillcast/internal/recovery"
	"github.com/quillcast/quillcast/internal/storage"
	"github.com/quillcast/quillcast/internal/synth"
	"github.com/quillcast/quillcast/pkg/types"
)

const version = "0.1.0"

// Exit codes: 0 every file completed, 1 a file failed to parse or was
// aborted, 2 usage or configuration errors.
const (
	exitOK    = 0
	exitErr   = 1
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// A .env file is optional, real environment wins
	_ = godotenv.Load()

	flags := flag.NewFlagSet("quillcast", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "QuillCast v%s - convert EPub books into audiobooks\n\n", version)
		fmt.Fprintf(flags.Output(), "Usage: quillcast [flags] EPUB [EPUB ...]\n\n")
		flags.PrintDefaults()
	}

	var (
		configPath = flags.String("config", "", "Path to YAML configuration file")
		outputDir  = flags.String("o", "", "Output directory")
		engine     = flags.String("engine", "", "Synthesis engine: "+joinNames())
		model      = flags.String("model", "", "Model or voice name (engine-specific default)")
		speakerWav = flags.String("speaker-wav", "", "Reference voice audio path (engines supporting cloning)")
		language   = flags.String("language", "", "Target language")
		onError    = flags.String("on-error", "", "Error strategy: ask, skip or edit")
		format     = flags.String("format", "", "Output format: mp3 or wav")
		doPackage  = flags.Bool("package", false, "Also write a .zip audiobook bundle")
		overwrite  = flags.Bool("overwrite", false, "Replace existing book output")
		logLevel   = flags.String("log-level", "", "Log level: debug, info, warning or error")
	)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return exitUsage
	}

	inputs := flags.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "quillcast: at least one EPub file is required")
		flags.Usage()
		return exitUsage
	}

	// Layer configuration: defaults <- file <- environment <- flags
	var cfg *types.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "quillcast: %v\n", err)
			return exitUsage
		}
		cfg = loaded
	} else {
		cfg = config.GetDefault()
		config.ApplyEnvOverrides(cfg)
	}
	applyFlags(cfg, flags, flagValues{
		outputDir:  *outputDir,
		engine:     *engine,
		model:      *model,
		speakerWav: *speakerWav,
		language:   *language,
		onError:    *onError,
		format:     *format,
		doPackage:  *doPackage,
		overwrite:  *overwrite,
		logLevel:   *logLevel,
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "quillcast: %v\n", err)
		return exitUsage
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quillcast: %v\n", err)
		return exitUsage
	}
	logging.SetLevel(level)
	log.SetFlags(log.LstdFlags)

	logging.Infof("[main] QuillCast v%s, engine %s, output %s", version, cfg.Synthesis.Engine, cfg.Output.Directory)

	// The local adapter publishes straight into the output directory
	// unless configuration points it elsewhere.
	if cfg.Storage.Adapter == "local" && cfg.Storage.Local.BasePath == "" {
		cfg.Storage.Local.BasePath = cfg.Output.Directory
	}
	store, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quillcast: %v\n", err)
		return exitUsage
	}
	defer store.Close()

	strategy, err := recovery.ParseStrategy(cfg.OnError)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quillcast: %v\n", err)
		return exitUsage
	}
	controller, err := recovery.New(strategy, console.NewPrompter(os.Stdin, os.Stderr), console.NewEditor())
	if err != nil {
		fmt.Fprintf(os.Stderr, "quillcast: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcomes, runErr := pipeline.New(cfg, controller, store).Run(ctx, inputs)

	code := exitOK
	for _, outcome := range outcomes {
		logging.Infof("[main] %s: %s (%d chapters, %d skipped)",
			outcome.Input, outcome.Status, len(outcome.Chapters), len(outcome.Skipped))
		if !outcome.Completed() {
			code = exitErr
		}
	}
	if runErr != nil {
		logging.Errorf("[main] %v", runErr)
		code = exitErr
	}
	return code
}

type flagValues struct {
	outputDir  string
	engine     string
	model      string
	speakerWav string
	language   string
	onError    string
	format     string
	doPackage  bool
	overwrite  bool
	logLevel   string
}

// applyFlags copies explicitly set flags over the configuration. Booleans
// go through Visit so "-package=false" can override a config file.
func applyFlags(cfg *types.Config, flags *flag.FlagSet, v flagValues) {
	if v.outputDir != "" {
		cfg.Output.Directory = v.outputDir
	}
	if v.engine != "" {
		cfg.Synthesis.Engine = v.engine
	}
	if v.model != "" {
		cfg.Synthesis.Model = v.model
	}
	if v.speakerWav != "" {
		cfg.Synthesis.SpeakerWav = v.speakerWav
	}
	if v.language != "" {
		cfg.Synthesis.Language = v.language
	}
	if v.onError != "" {
		cfg.OnError = v.onError
	}
	if v.format != "" {
		cfg.Output.Format = v.format
	}
	if v.logLevel != "" {
		cfg.LogLevel = v.logLevel
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "package":
			cfg.Output.Package = v.doPackage
		case "overwrite":
			cfg.Output.Overwrite = v.overwrite
		}
	})
}

func joinNames() string {
	return strings.Join(synth.Names(), ", ")
}
