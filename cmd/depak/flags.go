package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"

	"github.com/atom0s/depak/internal/logger"
	"github.com/atom0s/depak/internal/pak"
)

var (
	logLevel     string
	logFormat    string
	debug        bool
	nameEncoding string
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func nameEncodingFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "name-encoding",
		Usage:       "codepage of name-table bytes (windows-1252, iso-8859-1, euc-kr, shift-jis)",
		Value:       "windows-1252",
		Destination: &nameEncoding,
	}
}

func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = logger.ParseLevel("debug")
	}
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.Text(os.Stderr, level)
	default:
		return logger.Pretty(os.Stderr, level)
	}
}

func resolveEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "", "windows-1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin-1":
		return charmap.ISO8859_1, nil
	case "euc-kr":
		return korean.EUCKR, nil
	case "shift-jis":
		return japanese.ShiftJIS, nil
	default:
		return nil, fmt.Errorf("unknown name encoding %q", name)
	}
}

// Process exit codes, one per failure kind so callers can tell them apart.
const (
	exitInvalidInput      = 1
	exitIO                = 2
	exitFormat            = 3
	exitUnsupportedFormat = 4
	exitCorruptData       = 6
)

// exitErr maps an error onto the exit-code taxonomy.
func exitErr(err error) error {
	code := exitIO
	switch {
	case errors.Is(err, pak.ErrTruncated), errors.Is(err, pak.ErrNotValid):
		code = exitFormat
	case errors.Is(err, pak.ErrUnsupportedFormat):
		code = exitUnsupportedFormat
	case errors.Is(err, pak.ErrCorruptData):
		code = exitCorruptData
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		code = exitInvalidInput
	}
	return cli.Exit(fmt.Sprintf("error: %v", err), code)
}
