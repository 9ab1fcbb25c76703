package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/avelume/tutorialcast/internal/cache"
	"github.com/avelume/tutorialcast/internal/config"
	"github.com/avelume/tutorialcast/internal/image"
	"github.com/avelume/tutorialcast/internal/llm"
	"github.com/avelume/tutorialcast/internal/media"
	"github.com/avelume/tutorialcast/internal/pipeline"
	"github.com/avelume/tutorialcast/internal/script"
	"github.com/avelume/tutorialcast/internal/service"
	"github.com/avelume/tutorialcast/internal/voice"
	"github.com/avelume/tutorialcast/pkg/file"
	"github.com/avelume/tutorialcast/pkg/log"
)

const defaultTopic = "Cómo hacer una empanada de atún"

type cliArgs struct {
	topic      string
	style      string
	duration   int
	output     string
	configPath string
	topicsPath string
	schedule   string
}

func parseArgs(fs *flag.FlagSet, argv []string) (cliArgs, error) {
	var args cliArgs
	fs.StringVar(&args.topic, "topic", defaultTopic, "tutorial topic to produce")
	fs.StringVar(&args.style, "style", "educational", "script style: educational, casual or professional")
	fs.IntVar(&args.duration, "duration", 30, "target video duration in seconds")
	fs.StringVar(&args.output, "output", "", "output file name (defaults to a slug of the topic)")
	fs.StringVar(&args.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&args.topicsPath, "topics", "", "YAML topics file for batch mode")
	fs.StringVar(&args.schedule, "schedule", "", "cron expression for scheduled batch mode (requires -topics)")
	if err := fs.Parse(argv); err != nil {
		return cliArgs{}, err
	}
	return args, nil
}

func main() {
	args, err := parseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(args); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(args cliArgs) error {
	// Missing .env is fine, the environment may carry everything already.
	_ = godotenv.Load()

	cfg, err := config.New(args.configPath)
	if err != nil {
		return err
	}
	log.SetGlobal(log.NewLogger(log.ParseLevel(cfg.Service.LogLevel)))

	if args.schedule != "" && args.topicsPath == "" && cfg.Service.TopicsFile == "" {
		return fmt.Errorf("-schedule requires a topics file (-topics or TOPICS_FILE)")
	}

	videosDir := filepath.Join(cfg.Storage.OutputDir, "videos")
	for _, dir := range []string{videosDir, cfg.Storage.CacheDir, cfg.Storage.TempDir} {
		if err := file.EnsureDir(dir); err != nil {
			return err
		}
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := newPipeline(cfg, store)
	if err != nil {
		return err
	}

	topicsPath := args.topicsPath
	if topicsPath == "" {
		topicsPath = cfg.Service.TopicsFile
	}

	ctx := context.Background()

	if args.topicsPath != "" || args.schedule != "" {
		cronExpr := args.schedule
		if cronExpr == "" {
			cronExpr = cfg.Service.CronExpr
		}
		c := cron.New()
		runner := service.NewRunner(p, store, topicsPath, cronExpr, c)
		if args.schedule == "" {
			return runner.RunOnce(ctx)
		}
		if err := runner.Schedule(ctx); err != nil {
			return err
		}
		c.Run()
		return nil
	}

	out, err := p.Run(ctx, pipeline.Request{
		Topic:      args.topic,
		Style:      script.ParseStyle(args.style),
		Duration:   args.duration,
		OutputName: args.output,
	})
	if err != nil {
		return err
	}
	fmt.Println(out.Path)
	return nil
}

func newStore(cfg *config.Config) (cache.Store, error) {
	ttl := time.Duration(cfg.Storage.CacheTTLDays) * 24 * time.Hour
	if cfg.Storage.CacheBackend == "sqlite" {
		return cache.NewSQLiteStore(cfg.Storage.CacheDBPath, ttl)
	}
	return cache.NewFileStore(cfg.Storage.CacheDir, ttl)
}

func newPipeline(cfg *config.Config, store cache.Store) (*pipeline.Pipeline, error) {
	var generator script.TextGenerator
	if cfg.LLM.Enabled() {
		client, err := llm.NewClient(&llm.Config{
			APIKey:      cfg.LLM.APIKey,
			APIURL:      cfg.LLM.APIURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		})
		if err != nil {
			return nil, err
		}
		generator = script.NewLLMGenerator(client)
	} else {
		log.Warn("no LLM API key configured, scripts will use template fallback text")
	}

	classifier, err := script.LoadClassifier(cfg.Storage.KnowledgeBase)
	if err != nil {
		return nil, err
	}

	planner := script.NewPlanner(
		cache.ForPlanner(store),
		generator,
		classifier,
		time.Duration(cfg.LLM.Timeout)*time.Second,
	)

	narrator := voice.NewSynthesizer(
		voice.NewHTTPGenerator(cfg.Voice.APIURL, cfg.Voice.Temperature, time.Duration(cfg.Voice.Timeout)*time.Second),
		cfg.Voice.Preset,
		cfg.Voice.DefaultLanguageTag(),
	)

	visuals := image.NewSynthesizer(
		image.NewHTTPGenerator(cfg.Image.APIURL, cfg.Image.Model, 1280, 720, time.Duration(cfg.Image.Timeout)*time.Second),
	)

	assembler := media.NewAssembler(filepath.Join(cfg.Storage.OutputDir, "videos"))

	return pipeline.New(planner, narrator, visuals, assembler, cfg.Storage.TempDir, cfg.Image.Concurrency), nil
}
