package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/incubatech/proposal-screener/internal/repository"
)

// HistorySource is the slice of the history store the exporter reads.
type HistorySource interface {
	List(ctx context.Context) ([]repository.HistoryRecord, error)
}

// Service turns batch history rows into an XLSX report.
type Service struct {
	history HistorySource
	logger  *slog.Logger
}

func NewService(history HistorySource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, logger: logger}
}

// ExportHistoryXLSX returns a workbook with one row per classified document
// and a summary footer with pass/reject/failed counts.
func (s *Service) ExportHistoryXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.history.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Classifications"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"File",
		"SHA-256",
		"Verdict",
		"Confidence",
		"Message",
		"Extraction Path",
		"Text Length",
		"Error",
		"Classified At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	var passes, rejects, failures int
	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.FilePath)
		write(2, r.SHA256)
		write(3, r.Prediction)
		if r.Error == "" {
			write(4, r.Confidence)
		}
		write(5, truncate(r.Message, 140))
		write(6, r.ExtractionPath)
		if r.Error == "" {
			write(7, r.TextLength)
		}
		write(8, truncate(r.Error, 140))
		if !r.CreatedAt.IsZero() {
			write(9, r.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		switch {
		case r.Error != "":
			failures++
		case r.Prediction == "pass":
			passes++
		case r.Prediction == "reject":
			rejects++
		}
		row++
	}

	// Summary footer, one blank row below the table.
	row++
	for _, line := range []struct {
		label string
		n     int
	}{
		{"Total documents", len(recs)},
		{"Pass", passes},
		{"Reject", rejects},
		{"Failed", failures},
	} {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, labelCell, line.label)
		_ = f.SetCellValue(sheet, valueCell, line.n)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // file path
	_ = f.SetColWidth(sheet, "B", "B", 20) // checksum
	_ = f.SetColWidth(sheet, "C", "D", 12) // verdict, confidence
	_ = f.SetColWidth(sheet, "E", "E", 60) // message
	_ = f.SetColWidth(sheet, "F", "G", 16) // path, length
	_ = f.SetColWidth(sheet, "H", "H", 48) // error
	_ = f.SetColWidth(sheet, "I", "I", 20) // timestamp

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"pass", passes,
		"reject", rejects,
		"failed", failures,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
