package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/roach88/bake/internal/config"
)

// newLogger builds the CLI logger: a text handler on stderr and, when the
// config names a log file, a JSON handler on that file. Both sit behind a
// slog-multi fan-out. --verbose lowers the stderr level to Debug.
//
// The returned closer closes the log file; it is nil when there is none.
func newLogger(stderr io.Writer, cfg config.LogConfig, verbose bool) (*slog.Logger, io.Closer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	}

	var closer io.Closer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		fileLevel, _ := cfg.SlogLevel()
		if verbose {
			fileLevel = slog.LevelDebug
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: fileLevel}))
		closer = f
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}
