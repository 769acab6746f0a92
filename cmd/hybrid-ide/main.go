package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/furiousofnight/hybrid-ide/hybrid/config"
	"github.com/furiousofnight/hybrid-ide/hybrid/engine"
	"github.com/furiousofnight/hybrid-ide/hybrid/models"
)

func main() {
	configDir := flag.String("config", "", "directory containing config.yaml")
	warmup := flag.Bool("warmup", true, "run a warmup generation on startup")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	manager, err := models.NewManager(
		modelConfig(cfg.Models.Chat, models.TagChat),
		modelConfig(cfg.Models.Code, models.TagCode),
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("model manager init failed")
	}
	defer manager.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *warmup {
		manager.Warmup(ctx)
	}
	if err := manager.WriteHealthStatus(cfg.HealthPath()); err != nil {
		logger.Warn().Err(err).Msg("health status write failed")
	}

	agent, err := engine.NewFactory(cfg, logger).CreateAgent(manager.Chat(), manager.Code())
	if err != nil {
		logger.Fatal().Err(err).Msg("agent init failed")
	}

	runREPL(ctx, agent, logger)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func modelConfig(mc config.ModelConfig, tag models.Tag) *models.Config {
	return &models.Config{
		ModelPath:        mc.Path,
		Tag:              tag,
		ContextSize:      mc.ContextSize,
		GPULayers:        mc.GPULayers,
		Threads:          mc.Threads,
		PoolSize:         mc.PoolSize,
		BorrowTimeout:    time.Duration(mc.BorrowTimeoutMS) * time.Millisecond,
		RequestTimeout:   time.Duration(mc.RequestTimeoutMS) * time.Millisecond,
		BreakerThreshold: mc.BreakerThreshold,
		BreakerCooldown:  time.Duration(mc.BreakerCooldownS) * time.Second,
	}
}

func runREPL(ctx context.Context, agent *engine.Agent, logger zerolog.Logger) {
	fmt.Println("hybrid-ide assistant. Digite sua pergunta (ou 'sair' para encerrar).")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "sair" || line == "exit" {
			return
		}

		reply, err := agent.Reply(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("reply failed")
			continue
		}

		fmt.Println(reply.Text)
		if reply.Code != nil {
			fmt.Printf("\n--- %s ---\n%s\n", reply.Code.Language, reply.Code.Text)
		}
	}
}
