package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgeecs/forge/internal/component"
	"github.com/forgeecs/forge/internal/config"
	"github.com/forgeecs/forge/internal/core/ecs"
	coresys "github.com/forgeecs/forge/internal/core/system"
	"github.com/forgeecs/forge/internal/data"
	"github.com/forgeecs/forge/internal/scripting"
	"github.com/forgeecs/forge/internal/system"
	"github.com/pkg/profile"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	inputQueueSize   = 1024
	inputsPerTick    = 256
	reportsPerSecond = 1
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/forge.toml"
	if p := os.Getenv("FORGE_CONFIG"); p != "" {
		cfgPath = p
	}
	flags := pflag.NewFlagSet("forge", pflag.ContinueOnError)
	flags.StringVarP(&cfgPath, "config", "c", cfgPath, "path to the TOML config")
	prof := flags.String("profile", "", "write a cpu or mem profile to the working directory")
	frames := flags.Uint64("frames", 0, "stop after this many frames (overrides engine.max_frames)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// 1. Load config
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *frames > 0 {
		cfg.Engine.MaxFrames = *frames
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", *prof)
	}

	// 3. Components and templates
	reg := ecs.NewRegistry()
	ids, err := component.Register(reg)
	if err != nil {
		return fmt.Errorf("register components: %w", err)
	}
	templates, err := data.LoadTemplateTable(cfg.Content.Templates, reg, log)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	// 4. Entity manager, built-in triggers, script triggers
	mgr := ecs.NewEntityManager(reg, log, ecs.WithWriterLimit(cfg.Engine.WriterLimit))
	if _, err := system.Install(mgr, ids, templates, log); err != nil {
		return err
	}
	lua, err := scripting.NewEngine(cfg.Content.ScriptsDir, mgr, templates, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()
	if _, err := lua.Register(); err != nil {
		return err
	}

	// 5. Systems
	input := system.NewInputSystem(mgr, inputQueueSize, inputsPerTick, log)
	every := uint64(time.Second / cfg.Engine.FrameRate / reportsPerSecond)
	runner := coresys.NewRunner(log)
	runner.Register(input)
	runner.Register(system.NewWorldSystem(mgr, log))
	runner.Register(system.NewReportSystem(mgr, max(every, 1), log))

	for _, name := range cfg.Content.Spawn {
		if !input.Submit(system.SpawnRequest{Template: name, Count: 1}) {
			log.Warn("spawn queue full", zap.String("template", name))
		}
	}

	log.Info("forge ready",
		zap.Int("components", reg.Len()),
		zap.Int("templates", templates.Count()),
		zap.Strings("lua_triggers", lua.TriggerNames()),
		zap.Duration("frame_rate", cfg.Engine.FrameRate),
	)

	// 6. Run until signalled or the frame budget is spent
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := runner.Run(ctx, cfg.Engine.FrameRate, cfg.Engine.MaxFrames); err != nil {
		return err
	}

	st := mgr.LastFrame()
	log.Info("forge stopped", zap.Uint64("frames", mgr.Frame()), zap.Int("live", mgr.Len()), zap.Duration("last_frame", st.Duration))
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
