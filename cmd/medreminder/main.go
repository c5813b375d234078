package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gmsas95/medreminder/internal/app"
	"github.com/gmsas95/medreminder/internal/cli"
	"github.com/gmsas95/medreminder/internal/config"
	"github.com/gmsas95/medreminder/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	flag.Usage = func() { cli.PrintHelp(os.Stderr) }
	flag.Parse()

	cmd := "serve"
	args := flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "help", "--help", "-h":
		cli.PrintHelp(os.Stdout)
		return
	case "version", "--version", "-v":
		fmt.Printf("medreminder version %s\n", version)
		return
	}

	if err := config.LoadEnvFiles(); err != nil {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch cmd {
	case "config":
		cli.HandleConfigCommand(args, cfg, os.Stdout)
		return
	case "doctor":
		if issues := cli.HandleDoctorCommand(cfg, os.Stdout); issues > 0 {
			os.Exit(1)
		}
		return
	}

	logger, err := newLogger(cfg.Log, cmd == "serve" || cmd == "server")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	application := initApp(cfg, logger)
	defer application.Close()

	cli.Version = version
	if err := cli.Run(application, cmd, args, os.Stdout); err != nil {
		cli.PrintError(os.Stderr, err)
		application.Close()
		os.Exit(1)
	}
}

func initApp(cfg *config.Config, logger *zap.Logger) *app.App {
	logger.Info("Starting medreminder",
		zap.String("version", version),
		zap.String("data", cfg.Storage.DataDir),
	)

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	application, err := app.New(cfg, st, logger, version)
	if err != nil {
		st.Close()
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	return application
}

// newLogger builds the process logger. One-shot commands log warnings and
// above so their output stays readable.
func newLogger(cfg config.LogConfig, server bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if !server && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
