package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool
)

func init() {
	// Nop until Initialize runs so packages can log from init paths and tests
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger.
//
// All output goes to stderr: in stdio transport mode stdout carries the
// MCP JSON-RPC stream and a single stray log line corrupts it.
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	level := VerbosityToLevel(verbosity)

	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		// JSON structured output for log shippers
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		zapLogger, err = config.Build()
	} else {
		// Compact console output for humans
		zapLogger = zap.New(
			zapcore.NewCore(
				newMinimalEncoder(os.Getenv("NO_COLOR") == ""),
				zapcore.Lock(os.Stderr),
				level,
			),
		)
	}

	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// InitializeFromEnv reads HEVYMCP_LOG_JSON and HEVYMCP_LOG_LEVEL, used before
// configuration is available (e.g. during flag parsing).
func InitializeFromEnv() error {
	jsonOutput := strings.EqualFold(os.Getenv("HEVYMCP_LOG_JSON"), "true")

	verbosity := VerbosityUser
	switch strings.ToUpper(os.Getenv("HEVYMCP_LOG_LEVEL")) {
	case "INFO":
		verbosity = VerbosityInfo
	case "DEBUG":
		verbosity = VerbosityDebug
	}

	return Initialize(jsonOutput, verbosity)
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
