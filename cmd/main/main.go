package main

import (
	"io"
	"io/fs"
	"os"

	"github.com/matt-steen/sqr1/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := execute(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// setupLogging points the global logger at the configured file, or stderr. It returns the file
// to close, if one was opened.
func setupLogging(cfg config.LogConfig, level zerolog.Level) (io.Closer, error) {
	zerolog.SetGlobalLevel(level)

	var (
		out    io.Writer = os.Stderr
		closer io.Closer
	)

	if cfg.File != "" {
		filePerms := 0o666

		logFile, err := os.OpenFile(cfg.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(filePerms))
		if err != nil {
			return nil, err
		}

		out, closer = logFile, logFile
	}

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02_15:04:05"}
	}

	log.Logger = log.With().Caller().Logger().Output(out)

	return closer, nil
}
