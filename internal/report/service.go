package report

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/apperror"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/daterange"
)

var ErrInvalidWindow = apperror.New(http.StatusBadRequest, "report window start must be before its end")

const sheetName = "Occupancy"

// Service produces the kennel-distribution workbook staff download to see
// how bookings spread across the resource pool.
type Service interface {
	// Occupancy renders the per-resource occupancy of [from, to) as an
	// xlsx workbook.
	Occupancy(ctx context.Context, tenantID string, from, to time.Time) (*bytes.Buffer, error)
}

type service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) Occupancy(ctx context.Context, tenantID string, from, to time.Time) (*bytes.Buffer, error) {
	window := daterange.New(from, to)
	if !window.Valid() {
		return nil, ErrInvalidWindow
	}

	rows, err := s.repo.OccupancyRows(ctx, tenantID, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	buf, err := renderWorkbook(window, rows)
	if err != nil {
		return nil, fmt.Errorf("render occupancy workbook: %w", err)
	}

	s.logger.Info().
		Str("tenantID", tenantID).
		Int("resources", len(rows)).
		Msg("occupancy report generated")

	return buf, nil
}

func renderWorkbook(window daterange.Range, rows []OccupancyRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName("Sheet1", sheetName)

	headers := []any{"Resource", "Suite Type", "Reservations", "Reserved Nights", "Occupancy"}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "E1", style)
	}

	windowNights := window.Nights()
	for i, row := range rows {
		occupancy := 0.0
		if windowNights > 0 {
			occupancy = float64(row.ReservedNights) / float64(windowNights)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			row.ResourceName,
			row.SuiteType,
			row.ReservationCount,
			row.ReservedNights,
			fmt.Sprintf("%.0f%%", occupancy*100),
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	summary := fmt.Sprintf("Window %s to %s (%d nights)",
		window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"), windowNights)
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+3)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, cell, summary); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}
