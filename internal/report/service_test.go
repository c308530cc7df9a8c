package report

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeRepo struct {
	rows []OccupancyRow
	err  error
}

func (f *fakeRepo) OccupancyRows(ctx context.Context, tenantID string, from, to time.Time) ([]OccupancyRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func day(offset int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestOccupancyRendersWorkbook(t *testing.T) {
	repo := &fakeRepo{rows: []OccupancyRow{
		{ResourceID: "res-1", ResourceName: "VIP 1", SuiteType: "VIP_SUITE", ReservationCount: 2, ReservedNights: 5},
		{ResourceID: "res-2", ResourceName: "Standard 1", SuiteType: "STANDARD_SUITE", ReservationCount: 0, ReservedNights: 0},
	}}
	svc := NewService(repo, zerolog.New(io.Discard))

	buf, err := svc.Occupancy(context.Background(), "tenant-1", day(0), day(10))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Occupancy")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)

	assert.Equal(t, []string{"Resource", "Suite Type", "Reservations", "Reserved Nights", "Occupancy"}, rows[0])
	assert.Equal(t, "VIP 1", rows[1][0])
	assert.Equal(t, "50%", rows[1][4], "5 of 10 nights")
	assert.Equal(t, "Standard 1", rows[2][0])
	assert.Equal(t, "0%", rows[2][4])
}

func TestOccupancyRejectsEmptyWindow(t *testing.T) {
	svc := NewService(&fakeRepo{}, zerolog.New(io.Discard))

	_, err := svc.Occupancy(context.Background(), "tenant-1", day(10), day(10))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = svc.Occupancy(context.Background(), "tenant-1", day(10), day(5))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
