// Package server exposes an opened PAK archive over HTTP: an entry listing
// and on-the-fly extracted downloads, for poking at archives without dumping
// them to disk.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/atom0s/depak/internal/logger"
	"github.com/atom0s/depak/internal/pak"
)

type Server struct {
	archive *pak.Archive
	path    string
	entries []pak.Entry
	names   []string
	special uint32
	log     logger.Logger
}

// New parses the archive's tables once and resolves every entry name up
// front, so request handlers only do payload work.
func New(a *pak.Archive, path string, log logger.Logger) (*Server, error) {
	entries, special, err := a.Entries()
	if err != nil {
		return nil, err
	}

	s := &Server{
		archive: a,
		path:    path,
		special: special,
		log:     log,
	}

	rest, locator, ok := pak.SplitLocator(entries)
	if !ok {
		return s, nil
	}
	table, err := a.Names(locator, nil)
	if err != nil {
		return nil, err
	}

	s.entries = rest
	s.names = make([]string, len(rest))
	unnamed := 0
	for i, e := range rest {
		if name := table[e.ContentID]; name != "" {
			s.names[i] = name
			continue
		}
		s.names[i] = pak.SyntheticName(unnamed)
		unnamed++
	}
	return s, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(s.requestID)
	e.GET("/v1/archive", s.handleArchive)
	e.GET("/v1/entries", s.handleEntries)
	e.GET("/v1/entries/:index/data", s.handleEntryData)
}

// requestID tags every request with a generated id, echoed in the response
// header and the access log.
func (s *Server) requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := "req_" + uuid.NewString()
		c.Response().Header().Set("X-Request-Id", id)
		err := next(c)
		status := 0
		if res, uerr := echo.UnwrapResponse(c.Response()); uerr == nil {
			status = res.Status
		}
		s.log.Info("request",
			"id", id,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", status)
		return err
	}
}

// ArchiveInfo describes the opened archive.
type ArchiveInfo struct {
	Path          string `json:"path"`
	Signature     string `json:"signature"`
	AlignmentUnit uint32 `json:"alignment_unit"`
	ChunkUnit     uint32 `json:"chunk_unit"`
	EntriesOffset uint64 `json:"entries_offset"`
	SizeBytes     int    `json:"size_bytes"`
	Entries       int    `json:"entries"`
	Special       uint32 `json:"special_entries"`
}

// EntryInfo describes one extractable entry. Index is the handle for the
// data endpoint; content ids are correlation keys and may repeat.
type EntryInfo struct {
	Index     int    `json:"index"`
	ContentID string `json:"content_id"`
	Position  uint32 `json:"position"`
	Offset    uint64 `json:"offset"`
	Size      uint32 `json:"size"`
	Name      string `json:"name"`
}

func (s *Server) handleArchive(c *echo.Context) error {
	hdr := s.archive.Header()
	return c.JSON(http.StatusOK, ArchiveInfo{
		Path:          s.path,
		Signature:     hdr.Signature.String(),
		AlignmentUnit: hdr.AlignmentUnit,
		ChunkUnit:     hdr.ChunkUnit,
		EntriesOffset: hdr.EntriesOffset,
		SizeBytes:     s.archive.Size(),
		Entries:       len(s.entries),
		Special:       s.special,
	})
}

func (s *Server) handleEntries(c *echo.Context) error {
	hdr := s.archive.Header()
	out := make([]EntryInfo, len(s.entries))
	for i, e := range s.entries {
		out[i] = EntryInfo{
			Index:     i,
			ContentID: fmt.Sprintf("%08X", e.ContentID),
			Position:  e.Position,
			Offset:    uint64(e.Position) * uint64(hdr.AlignmentUnit),
			Size:      e.Size,
			Name:      s.names[i],
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleEntryData(c *echo.Context) error {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 || idx >= len(s.entries) {
		return writeError(c, http.StatusNotFound, "no entry at that index")
	}
	data, _, err := s.archive.ExtractEntry(s.entries[idx])
	if err != nil {
		if errors.Is(err, pak.ErrCorruptData) {
			return writeError(c, http.StatusUnprocessableEntity, err.Error())
		}
		return writeError(c, http.StatusInternalServerError, err.Error())
	}
	if data == nil {
		return writeError(c, http.StatusNotFound, "entry has no compressed chunks")
	}
	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", s.names[idx]))
	return c.Blob(http.StatusOK, "application/octet-stream", data)
}

func writeError(c *echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]any{
		"error": map[string]string{"message": msg},
	})
}
