package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/atom0s/depak/internal/pak"
)

type listEntry struct {
	ContentID string `json:"content_id"`
	Position  uint32 `json:"position"`
	Offset    uint64 `json:"offset"`
	Size      uint32 `json:"size"`
	Name      string `json:"name,omitempty"`
}

func listCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "list",
		Usage:     "List the entries of a PAK archive without extracting",
		ArgsUsage: "<archive.pak>",
		Flags: append(loggingFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "emit the listing as JSON",
				Destination: &asJSON,
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
			applyConfig(cmd, cfg, nil, nil)

			enc, err := resolveEncoding(nameEncoding)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInvalidInput)
			}

			a, err := pak.Open(path)
			if err != nil {
				return exitErr(err)
			}
			defer func() { _ = a.Close() }()

			entries, special, err := a.Entries()
			if err != nil {
				return exitErr(err)
			}

			hdr := a.Header()
			rest, locator, ok := pak.SplitLocator(entries)

			var names pak.NameTable
			if ok {
				names, err = a.Names(locator, enc)
				if err != nil {
					return exitErr(err)
				}
			}

			out := make([]listEntry, 0, len(rest))
			unnamed := 0
			for _, e := range rest {
				name := names[e.ContentID]
				if name == "" {
					name = pak.SyntheticName(unnamed)
					unnamed++
				}
				out = append(out, listEntry{
					ContentID: fmt.Sprintf("%08X", e.ContentID),
					Position:  e.Position,
					Offset:    uint64(e.Position) * uint64(hdr.AlignmentUnit),
					Size:      e.Size,
					Name:      name,
				})
			}

			if asJSON {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return exitErr(err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Archive:  %s\n", path)
			fmt.Printf("Format:   %s\n", hdr.Signature)
			fmt.Printf("Entries:  %d (%d special, skipped)\n\n", len(rest), special)
			fmt.Printf("%-8s  %-10s  %-10s  %s\n", "ID", "OFFSET", "SIZE", "NAME")
			for _, e := range out {
				fmt.Printf("%-8s  %#-10x  %-10d  %s\n", e.ContentID, e.Offset, e.Size, e.Name)
			}
			_ = os.Stdout.Sync()
			return nil
		},
	}
}
