// handlers.go - Upload, session and history operation handlers
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/firlift/firlift/constants"
	"github.com/firlift/firlift/internal/common"
	"github.com/firlift/firlift/internal/export"
	"github.com/firlift/firlift/internal/extract"
	"github.com/firlift/firlift/internal/uploader"
)

// Handler exposes the upload core to presentation layers over HTTP.
type Handler struct {
	orch     *uploader.Orchestrator
	exporter *export.Service
	spoolDir string
	logger   *slog.Logger
}

func NewHandler(orch *uploader.Orchestrator, exporter *export.Service, spoolDir string, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(spoolDir, 0o755); err != nil {
		return nil, err
	}
	return &Handler{
		orch:     orch,
		exporter: exporter,
		spoolDir: spoolDir,
		logger:   logger,
	}, nil
}

// HandleUploadDocument accepts a multipart document and submits it for
// extraction. The transaction runs asynchronously; callers poll the session.
func (h *Handler) HandleUploadDocument(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(fh.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return NewBadRequestError("unsupported file extension: "+ext, nil)
	}

	src, err := fh.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	spooled, err := os.CreateTemp(h.spoolDir, "doc-*."+ext)
	if err != nil {
		return NewInternalError("failed to spool file", err)
	}
	if _, err := io.Copy(spooled, src); err != nil {
		spooled.Close()
		os.Remove(spooled.Name())
		return NewInternalError("failed to spool file", err)
	}
	spooled.Close()

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = constants.MIMEForExt(ext)
	}

	// The orchestrator owns the spooled copy and removes it once the
	// transaction completes.
	file := extract.FileReference{
		Locator:   spooled.Name(),
		Name:      fh.Filename,
		MIMEType:  mimeType,
		Temporary: true,
	}
	if err := h.orch.Submit(file); err != nil {
		os.Remove(spooled.Name())
		if errors.Is(err, common.ErrUploadInFlight) {
			return NewConflictError("an upload is already in flight")
		}
		return NewInternalError("failed to submit upload", err)
	}

	return c.JSON(http.StatusAccepted, h.orch.Session())
}

// HandleSession returns the current transaction snapshot.
func (h *Handler) HandleSession(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.Session())
}

// HandleCurrentResult returns the current normalized result.
func (h *Handler) HandleCurrentResult(c echo.Context) error {
	res := h.orch.Current()
	if res == nil {
		return NewNotFoundError("result", "current")
	}
	return c.JSON(http.StatusOK, res)
}

// HandleHistory returns the retained history, most recent first.
func (h *Handler) HandleHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.History().List())
}

// HandleHistoryEntry returns a single stored entry.
func (h *Handler) HandleHistoryEntry(c echo.Context) error {
	id := c.Param("id")
	entry := h.orch.History().Select(id)
	if entry == nil {
		return NewNotFoundError("history entry", id)
	}
	return c.JSON(http.StatusOK, entry)
}

// HandleSelectHistory repoints the current result at a stored entry.
func (h *Handler) HandleSelectHistory(c echo.Context) error {
	id := c.Param("id")
	entry, err := h.orch.SelectFromHistory(id)
	if err != nil {
		return NewNotFoundError("history entry", id)
	}
	return c.JSON(http.StatusOK, entry)
}

// HandleExportHistory streams the history as an XLSX workbook.
func (h *Handler) HandleExportHistory(c echo.Context) error {
	data, err := h.exporter.ExportHistoryXLSX()
	if err != nil {
		return NewInternalError("failed to export history", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="fir_history.xlsx"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// HandleHealth is a liveness probe.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
