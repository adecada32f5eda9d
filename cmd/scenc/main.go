package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/scenc/scenc/internal/compiler"
	"github.com/scenc/scenc/internal/config"
	"github.com/scenc/scenc/internal/history"
	"github.com/scenc/scenc/internal/influx"
	"github.com/scenc/scenc/internal/logging"
	intOtel "github.com/scenc/scenc/internal/otel"
)

// version info - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "scenc"
)

// global state
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// HistoryStore is the local build index, nil when disabled
	HistoryStore *history.Store

	// Metrics ships compile stats to InfluxDB, nil when disabled
	Metrics *influx.Manager

	LogFilePath string
	LogFile     *os.File

	SessionStartTime time.Time = time.Now()

	// dynamic logging context, set as each compile progresses
	currentScenario    string
	currentFingerprint string
)

func setup() {
	var err error

	// Initialize slog manager with stdout only until config is loaded
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	// load config from the working directory
	err = config.Load(".")
	if err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	// create logs dir if it doesn't exist
	if _, err := os.Stat(viper.GetString("logsDir")); os.IsNotExist(err) {
		os.Mkdir(viper.GetString("logsDir"), 0755)
	}

	LogFilePath = logging.LogFilePath(viper.GetString("logsDir"), AppName, SessionStartTime)
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	}

	// Initialize OTel provider if enabled (after log file is created)
	if viper.GetBool("otel.enabled") {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      true,
			ServiceName:  AppName,
			BatchTimeout: 5 * time.Second,
			LogWriter:    LogFile,
			Endpoint:     viper.GetString("otel.endpoint"),
			Insecure:     viper.GetBool("otel.insecure"),
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", LogFilePath)
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()

	// Set up dynamic state callbacks for logging
	SlogManager.GetScenarioName = func() string { return currentScenario }
	SlogManager.GetFingerprint = func() string { return currentFingerprint }

	if viper.GetBool("history.enabled") {
		HistoryStore, err = history.Open(viper.GetString("history.path"))
		if err != nil {
			Logger.Warn("Failed to open build history, continuing without it", "error", err)
			HistoryStore = nil
		}
	}

	if viper.GetBool("influx.enabled") {
		zl := zerolog.New(LogFile).With().Timestamp().Logger()
		Metrics = influx.NewManager(zl, LogFilePath+".influx.gz")
		if err := Metrics.Connect(); err != nil {
			Logger.Warn("Failed to connect to InfluxDB, continuing without metrics", "error", err)
			Metrics = nil
		}
	}
}

func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if Metrics != nil {
		Metrics.Close()
	}
	if HistoryStore != nil {
		if err := HistoryStore.Close(); err != nil {
			Logger.Warn("Failed to close build history", "error", err)
		}
	}
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

func usage() {
	fmt.Printf(`scenc %s (built %s)

Usage:
  scenc compile <scenario.json> <outputDir>   compile a scenario into its build directory
  scenc clean <outputDir>                     remove a scenario's build directory
  scenc fingerprint <scenario.json>           print the scenario fingerprint without building
  scenc locate <scenario.json> <lon> <lat>    snap a GPS coordinate to the nearest drivable lane
  scenc history [n]                           show the n most recent builds (default 10)
`, CurrentVersion, BuildDate)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	setup()
	defer teardown()

	var err error
	switch strings.ToLower(args[0]) {
	case "compile":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		err = runCompile(args[1], args[2])
	case "clean":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		err = runClean(args[1])
	case "fingerprint":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		err = runFingerprint(args[1])
	case "locate":
		if len(args) < 4 {
			usage()
			os.Exit(2)
		}
		err = runLocate(args[1], args[2], args[3])
	case "history":
		err = runHistory(args[1:])
	case "version":
		fmt.Println(CurrentVersion, BuildDate)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		Logger.Error("Command failed", "error", err)
		teardown()
		os.Exit(1)
	}
}

func compilerService() *compiler.Service {
	return compiler.NewService(compiler.Dependencies{
		Log:     Logger,
		History: HistoryStore,
		Metrics: Metrics,
	})
}
