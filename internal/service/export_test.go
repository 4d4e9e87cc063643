package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"racetime/internal/store"
)

func TestLoadRows(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{Activities: dailyRuns(30)}}
	exp := NewExportService(h, newTrainingService(h))

	rows, err := exp.LoadRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 31, "first run through today")

	assert.Equal(t, "2026-09-01", rows[0].Date)
	assert.Equal(t, "2026-10-01", rows[30].Date)
	assert.Zero(t, rows[30].TRIMP, "no run today")
	for i := 1; i < 30; i++ {
		assert.Greater(t, rows[i].CTL, rows[i-1].CTL)
		assert.InDelta(t, rows[i].CTL-rows[i].ATL, rows[i].TSB, 1e-9)
	}
}

func TestWriteParquet(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{Activities: dailyRuns(14)}}
	exp := NewExportService(h, newTrainingService(h))

	var buf bytes.Buffer
	n, err := exp.WriteParquet(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	pr, err := reader.NewParquetReader(parquetbuffer.NewBufferFileFromBytes(buf.Bytes()), new(LoadRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	require.Equal(t, int64(n), pr.GetNumRows())

	rows := make([]LoadRow, n)
	require.NoError(t, pr.Read(&rows))
	want, err := exp.LoadRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, rows)
}

func TestWriteParquetFetchError(t *testing.T) {
	h := &fakeHistory{err: assert.AnError}
	exp := NewExportService(h, newTrainingService(h))

	var buf bytes.Buffer
	_, err := exp.WriteParquet(context.Background(), &buf)
	assert.ErrorIs(t, err, ErrFetch)
	assert.Zero(t, buf.Len())
}
