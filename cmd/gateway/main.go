// Package main is the entry point for the avaguard gateway.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaguard/internal/config"
	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// exitFunc is replaced in tests.
var exitFunc = os.Exit

// Defaults for the boot logger, used until the configuration is read.
const (
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags(flag.CommandLine, os.Args[1:])

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags.logLevel, flags.logFormat)

	cfg := loadAndValidateConfig(flags.configPath, logger)
	logger = reconfigureLogger(logger, flags, cfg)
	defer func() { _ = logger.Sync() }()

	gin.SetMode(gin.ReleaseMode)

	app := initApplication(cfg, logger)
	runGateway(app, flags.configPath, logger)
}

// parseFlags parses command line flags. Unset flags fall back to GATEWAY_*
// environment variables. Log settings left empty defer to the file.
func parseFlags(fs *flag.FlagSet, args []string) cliFlags {
	var f cliFlags
	fs.StringVar(&f.configPath, "config", getEnvOrDefault(envConfigPath, "configs/gateway.yaml"),
		"Path to configuration file")
	fs.StringVar(&f.logLevel, "log-level", getEnvOrDefault(envLogLevel, ""),
		"Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", getEnvOrDefault(envLogFormat, ""),
		"Log format (json, console)")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")
	_ = fs.Parse(args)
	return f
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("avaguard version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes a logger, exiting on invalid settings.
func initLogger(level, format string) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:   valueOr(level, defaultLogLevel),
		Format:  valueOr(format, defaultLogFormat),
		Service: config.DefaultServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		exitFunc(1)
		return observability.NopLogger()
	}
	return logger
}

// reconfigureLogger rebuilds the logger from spec.observability.logging
// for settings not given on the command line.
func reconfigureLogger(
	logger observability.Logger,
	flags cliFlags,
	cfg *config.GatewayConfig,
) observability.Logger {
	lc := cfg.Spec.Observability.Logging
	level, format := flags.logLevel, flags.logFormat
	if level == "" {
		level = lc.Level
	}
	if format == "" {
		format = lc.Format
	}
	bootLevel, bootFormat := valueOr(flags.logLevel, defaultLogLevel), valueOr(flags.logFormat, defaultLogFormat)
	if level == bootLevel && format == bootFormat && (lc.Output == "" || lc.Output == "stdout") {
		return logger
	}

	next, err := observability.NewLogger(observability.LogConfig{
		Level:   level,
		Format:  format,
		Output:  lc.Output,
		Service: config.DefaultServiceName,
	})
	if err != nil {
		logger.Warn("invalid logging configuration, keeping defaults", observability.Error(err))
		return logger
	}
	_ = logger.Sync()
	return next
}

// fatalWithSync logs at error level, flushes and exits.
func fatalWithSync(logger observability.Logger, msg string, fields ...observability.Field) {
	logger.Error(msg, fields...)
	_ = logger.Sync()
	exitFunc(1)
}
