package logutils

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Verbose bool
	// File enables a rotating log file next to the console output.
	File string
	Out  *os.File
}

var isTerminal = func(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newFileWriter(filename string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Level returns the application log level.
func Level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}

	return zerolog.InfoLevel
}

// Setup configures the global zerolog logger and the logrus logger used by
// the provider clients. The returned closer releases the log file, if any.
func Setup(o *Options) io.Closer {
	out := o.Out
	if out == nil {
		out = os.Stderr
	}

	console := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !isTerminal(out),
		TimeFormat: time.Kitchen,
	}

	var (
		w      io.Writer = console
		raw    io.Writer = out
		closer io.Closer = nopCloser{}
	)
	if o.File != "" {
		f := newFileWriter(o.File)
		w = zerolog.MultiLevelWriter(console, f)
		raw = io.MultiWriter(out, f)
		closer = f
	}

	zerolog.SetGlobalLevel(Level(o.Verbose))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	logrus.SetOutput(raw)
	if o.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	return closer
}
