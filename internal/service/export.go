package service

import (
	"context"
	"fmt"
	"io"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"racetime/internal/analysis"
)

// LoadRow is one day of the exported training-load series
type LoadRow struct {
	Date  string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TRIMP float64 `parquet:"name=trimp, type=DOUBLE"`
	CTL   float64 `parquet:"name=ctl, type=DOUBLE"`
	ATL   float64 `parquet:"name=atl, type=DOUBLE"`
	TSB   float64 `parquet:"name=tsb, type=DOUBLE"`
}

// ExportService writes the training-load series in columnar form
type ExportService struct {
	history  HistorySource
	training *TrainingService
}

// NewExportService creates an export service using the training service's settings
func NewExportService(history HistorySource, training *TrainingService) *ExportService {
	return &ExportService{history: history, training: training}
}

// LoadRows builds the dense daily TRIMP/CTL/ATL/TSB series over the whole history
func (s *ExportService) LoadRows(ctx context.Context) ([]LoadRow, error) {
	data, err := s.history.GetPredictionData(ctx, 0)
	if err != nil {
		return nil, fetchError(err)
	}
	now := s.training.now()
	loads := analysis.DailyLoads(data.Activities, s.training.Settings(), now)
	series := analysis.TSBSeries(loads)

	rows := make([]LoadRow, len(series))
	for i, m := range series {
		rows[i] = LoadRow{
			Date:  m.Date.Format("2006-01-02"),
			TRIMP: loads[i].TRIMP,
			CTL:   m.CTL,
			ATL:   m.ATL,
			TSB:   m.TSB,
		}
	}
	return rows, nil
}

// WriteParquet writes the series to w as a snappy-compressed parquet file and
// returns the number of rows
func (s *ExportService) WriteParquet(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.LoadRows(ctx)
	if err != nil {
		return 0, err
	}
	data, err := marshalLoadParquet(rows)
	if err != nil {
		return 0, fmt.Errorf("encoding parquet: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func marshalLoadParquet(rows []LoadRow) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(LoadRow), 2)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
