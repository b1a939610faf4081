package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/firlift/firlift/internal/history"
)

// Service is a tiny façade over the history store that produces XLSX bytes.
type Service struct {
	history *history.Store
	logger  *slog.Logger
}

func NewService(hist *history.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: hist, logger: logger}
}

// ExportHistoryXLSX returns an XLSX workbook (as bytes) with one row per
// retained history entry, most recent first.
func (s *Service) ExportHistoryXLSX() ([]byte, error) {
	start := time.Now()
	entries := s.history.List()

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Timestamp",
		"Filename",
		"File Size",
		"Extraction Type",
		"Corrected Text",
		"Raw Urdu Text",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, e := range entries {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, e.Timestamp)
		write(2, derefOr(e.Filename, "—"))
		if e.FileSize != nil {
			write(3, *e.FileSize)
		} else {
			write(3, "")
		}
		write(4, e.ExtractionType)
		write(5, truncate(derefOr(e.CorrectedText, ""), 140))
		write(6, truncate(derefOr(e.RawUrduText, ""), 140))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 22) // timestamp
	_ = f.SetColWidth(sheet, "B", "B", 32) // filename
	_ = f.SetColWidth(sheet, "C", "D", 14)
	_ = f.SetColWidth(sheet, "E", "F", 60) // text

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// truncate shortens s to at most n runes. Byte slicing would split multi-byte
// sequences mid-rune, and columns E/F carry Urdu text.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
