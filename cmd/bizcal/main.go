package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/bizcal/internal/agenda"
	"github.com/username/bizcal/internal/config"
	"github.com/username/bizcal/internal/records"
)

var (
	configPath string
	teeOutput  string
	logger     *zap.Logger
	outWriter  io.Writer = os.Stdout
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bizcal",
		Short: "Task and project calendar",
		Long:  "Month, week and day calendar views over tasks and projects, with iCalendar export",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger() // Fallback to console
				}
			} else {
				initLogger() // Default console logger
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&teeOutput, "tee-output", "", "Mirror command output to file")

	rootCmd.AddCommand(windowCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openOutput points outWriter at stdout, mirrored to --tee-output when set
func openOutput() (func(), error) {
	outWriter = os.Stdout
	if teeOutput == "" {
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(teeOutput), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tee path: %w", err)
	}
	f, err := os.OpenFile(teeOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open tee-output file: %w", err)
	}
	outWriter = io.MultiWriter(os.Stdout, f)

	return func() {
		f.Close()
		outWriter = os.Stdout
	}, nil
}

func outPrintf(format string, a ...interface{}) {
	if outWriter == nil {
		outWriter = os.Stdout
	}
	fmt.Fprintf(outWriter, format, a...)
}

// initializeService wires the configured record source into an agenda
// service. The returned cleanup releases tokens and connections.
func initializeService(ctx context.Context, cfg *config.Config) (*agenda.Service, func(), error) {
	var (
		source  records.Source
		cleanup = func() {}
	)

	switch cfg.Source.Type {
	case config.SourceHTTP:
		var tokens *records.TokenProvider
		switch {
		case cfg.Source.HTTP.TokenCommand != "":
			tokens = records.NewCommandToken(cfg.Source.HTTP.TokenCommand, cfg.Source.HTTP.GetTokenRefresh(), logger)
		case cfg.Source.HTTP.Token != "":
			tokens = records.NewStaticToken(cfg.Source.HTTP.Token)
		}
		if tokens != nil {
			if err := tokens.Start(); err != nil {
				return nil, nil, fmt.Errorf("failed to start token provider: %w", err)
			}
			cleanup = tokens.Stop
		}

		logger.Info("Using HTTP record source", zap.String("endpoint", cfg.Source.HTTP.Endpoint))
		source = records.NewClient(cfg.Source.HTTP.Endpoint, tokens, logger)

	case config.SourceMySQL:
		db, err := records.OpenMySQL(ctx, cfg.Source.Database.DSN(), logger)
		if err != nil {
			return nil, nil, err
		}
		sqlSource := records.NewSQLSource(db, logger)
		cleanup = func() { sqlSource.Close() }

		logger.Info("Using MySQL record source", zap.String("host", cfg.Source.Database.Host))
		source = sqlSource

	case config.SourceFile:
		fileSource := records.NewFileSource(cfg.Source.File, logger)
		if err := fileSource.Load(); err != nil {
			return nil, nil, err
		}
		source = fileSource

	default:
		return nil, nil, fmt.Errorf("unknown source type: %s", cfg.Source.Type)
	}

	if cfg.Source.FallbackFile != "" && cfg.Source.Type != config.SourceFile {
		composite := records.NewCompositeSource(source, records.NewFileSource(cfg.Source.FallbackFile, logger), logger)

		// Load fallback records
		if err := composite.LoadFallback(); err != nil {
			logger.Warn("Failed to load fallback records, continuing with primary only",
				zap.Error(err))
		} else {
			source = composite
		}
	}

	svc := agenda.NewService(source, cfg.Calendar.GetWeekStart(), logger)
	return svc, cleanup, nil
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
