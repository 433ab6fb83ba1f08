package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/atom0s/depak/internal/logger"
	"github.com/atom0s/depak/internal/pak"
)

func extractCmd() *cli.Command {
	var (
		outDir   string
		manifest bool
	)

	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract a PAK archive's files to disk",
		ArgsUsage: "<archive.pak>",
		Flags: append(loggingFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory",
				Value:       "dump",
				Destination: &outDir,
			},
			&cli.BoolFlag{
				Name:        "manifest",
				Usage:       "write a manifest.json describing the extracted files",
				Destination: &manifest,
			},
			nameEncodingFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return cli.Exit("error: no input file given", exitInvalidInput)
			}
			path := cmd.Args().First()

			cfg, err := loadConfig()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read config: %v", err), exitInvalidInput)
			}
			applyConfig(cmd, cfg, &outDir, nil)

			log := newLogger()
			ctx = logger.WithContext(ctx, log)

			enc, err := resolveEncoding(nameEncoding)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInvalidInput)
			}

			a, err := pak.Open(path)
			if err != nil {
				return exitErr(err)
			}
			defer func() { _ = a.Close() }()

			hdr := a.Header()
			log.Info("processing archive",
				"path", path,
				"signature", hdr.Signature.String(),
				"alignment", hdr.AlignmentUnit)

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return exitErr(err)
			}

			sink := &recordingSink{next: &pak.DirSink{Dir: outDir}}
			stats, err := a.Extract(ctx, sink, pak.Options{NameEncoding: enc})
			if err != nil {
				return exitErr(err)
			}

			if manifest {
				if err := writeManifest(filepath.Join(outDir, "manifest.json"), sink.records); err != nil {
					return exitErr(err)
				}
			}

			log.Info("done",
				"extracted", stats.Extracted,
				"unnamed", stats.Unnamed,
				"skipped", stats.Skipped,
				"failed", stats.Failed)
			if stats.Failed > 0 {
				return cli.Exit(fmt.Sprintf("error: %d entries failed to extract", stats.Failed), exitCorruptData)
			}
			return nil
		},
	}
}

type manifestRecord struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// recordingSink forwards decoded files and remembers what was written, so a
// manifest can be emitted after the run.
type recordingSink struct {
	next    pak.Sink
	records []manifestRecord
}

func (s *recordingSink) Put(f pak.DecodedFile) error {
	if err := s.next.Put(f); err != nil {
		return err
	}
	s.records = append(s.records, manifestRecord{Name: f.Name, Size: len(f.Data)})
	return nil
}

func writeManifest(path string, records []manifestRecord) error {
	if records == nil {
		records = []manifestRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
