// Package logging builds the structured loggers used across rptd. cmd/rptd
// fills Config from the [general] keys loglevel (DisplayLevel), logpath
// (FilePath) and logroot (FileRoot).
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the numeric levels of the loglevel key (0 error .. 3 debug).
type Level uint32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// Config holds the console and file logger settings.
type Config struct {
	DisplayLevel Level
	FileLevel    Level
	FilePath     string
	FileRoot     string
}

// New builds a zap.SugaredLogger with a console core at DisplayLevel and,
// when FileRoot is set (FilePath, if set, names its directory), a file
// core at FileLevel.
func New(cfg Config) (*zap.SugaredLogger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.TimeKey = "ts"

	consoleEnc := zapcore.NewConsoleEncoder(encCfg)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.AddSync(os.Stdout), cfg.DisplayLevel.zapLevel()),
	}

	if cfg.FileRoot != "" {
		name := fmt.Sprintf("%s-%s.log", cfg.FileRoot, time.Now().Format("20060102"))
		path := name
		if cfg.FilePath != "" {
			path = filepath.Join(cfg.FilePath, name)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		fileEnc := zapcore.NewJSONEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(f), cfg.FileLevel.zapLevel()))
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core).Sugar(), nil
}

// Nop returns a logger that discards everything, used in tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
