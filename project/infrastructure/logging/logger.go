package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New はアプリケーションのロガーを作成します
// debug の場合はコンソール形式、それ以外は JSON で標準出力に書き出します
func New(level string, debug bool) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, debug)
}

// NewWithWriter は出力先を指定してロガーを作成します
func NewWithWriter(w io.Writer, level string, debug bool) zerolog.Logger {
	if debug {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if debug && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "dingbot").Logger()
}
