/*
Copyright 2026 The Discovery Agent contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	ctrlruntimelzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

type Format string

func (f *Format) Type() string {
	return "string"
}

func (f *Format) String() string {
	return string(*f)
}

func (f *Format) Set(s string) error {
	switch strings.ToLower(s) {
	case "json":
		*f = FormatJSON
		return nil
	case "console":
		*f = FormatConsole
		return nil
	default:
		return fmt.Errorf("invalid format '%s'", s)
	}
}

const (
	FormatJSON    Format = "JSON"
	FormatConsole Format = "Console"
)

var AvailableFormats = []Format{FormatJSON, FormatConsole}

// LevelEnv is the environment variable consulted for the default log level.
const LevelEnv = "LOGGING_LEVEL"

// Options exports an options struct to be used by the command-line as flag.
type Options struct {
	// Debug forces the debug log level, regardless of Level.
	Debug bool
	// Level is the minimum enabled level (debug, info, warn, error).
	Level string
	// Format corresponds to the log format (JSON or plain text).
	Format Format
}

// NewDefaultOptions returns JSON logging at the level named by LOGGING_LEVEL,
// or info when it is unset.
func NewDefaultOptions() Options {
	level := os.Getenv(LevelEnv)
	if level == "" {
		level = zapcore.InfoLevel.String()
	}

	return Options{
		Debug:  false,
		Level:  level,
		Format: FormatJSON,
	}
}

func (o *Options) AddPFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Debug, "log-debug", o.Debug, "Enables more verbose logging")
	fs.StringVar(&o.Level, "log-level", o.Level, "Minimum log level, one of debug, info, warn or error")
	fs.Var(&o.Format, "log-format", "Log format, one of JSON or Console")
}

func (o *Options) Validate() error {
	if _, err := zapcore.ParseLevel(o.Level); err != nil {
		return fmt.Errorf("invalid log-level specified %q: %w", o.Level, err)
	}

	for i := range AvailableFormats {
		if o.Format == AvailableFormats[i] {
			return nil
		}
	}

	return fmt.Errorf("invalid log-format specified %q; available: %+v", o.Format, AvailableFormats)
}

func (o *Options) level() zapcore.Level {
	if o.Debug {
		return zapcore.DebugLevel
	}

	lvl, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func NewFromOptions(o Options) *zap.Logger {
	return newLogger(os.Stderr, o.level(), o.Format)
}

func New(debug bool, format Format) *zap.Logger {
	lvl := zapcore.InfoLevel
	if debug {
		lvl = zapcore.DebugLevel
	}
	return newLogger(os.Stderr, lvl, format)
}

func newLogger(w io.Writer, level zapcore.Level, format Format) *zap.Logger {
	sink := zapcore.AddSync(w)

	encCfg := zap.NewProductionEncoderConfig()

	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	if format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.ErrorOutput(sink),
	}

	coreLog := zapcore.NewCore(&ctrlruntimelzap.KubeAwareEncoder{Encoder: enc}, sink, zap.NewAtomicLevelAt(level))
	return zap.New(coreLog, opts...)
}

// NewDefault creates new default logger.
func NewDefault() *zap.Logger {
	return New(false, FormatJSON)
}
