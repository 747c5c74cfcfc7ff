// Package export writes filtered puzzle sets to Parquet files.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/EvalVis/chesscorner/internal/puzzle"
)

// Row is the on-disk shape of one puzzle.
type Row struct {
	PuzzleID string `parquet:"name=puzzle_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FEN      string `parquet:"name=fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	Rating   int32  `parquet:"name=rating, type=INT32"`
	Themes   string `parquet:"name=themes, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Matcher lists every record passing a filter. *puzzle.Engine satisfies it.
type Matcher interface {
	Matching(ctx context.Context, f puzzle.Filter) ([]puzzle.Record, error)
}

const parallel = 4

// Export writes every record matching f to path and returns the row count.
func Export(ctx context.Context, m Matcher, f puzzle.Filter, path string) (int, error) {
	records, err := m.Matching(ctx, f)
	if err != nil {
		return 0, err
	}
	if err := WriteParquet(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// WriteParquet writes records to path with snappy compression.
func WriteParquet(path string, records []puzzle.Record) error {
	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fileWriter.Close()

	pw, err := writer.NewParquetWriter(fileWriter, new(Row), parallel)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, rec := range records {
		row := Row{PuzzleID: rec.ID, FEN: rec.FEN, Rating: int32(rec.Rating), Themes: strings.Join(rec.Themes, " ")}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", rec.ID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// ReadParquet loads a file written by WriteParquet.
func ReadParquet(path string) ([]puzzle.Record, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	pr, err := reader.NewParquetReader(fileReader, new(Row), parallel)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	rows := make([]Row, int(pr.GetNumRows()))
	if len(rows) > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, err
		}
	}
	out := make([]puzzle.Record, 0, len(rows))
	for _, row := range rows {
		themes := strings.Fields(row.Themes)
		if themes == nil {
			themes = []string{}
		}
		out = append(out, puzzle.Record{ID: row.PuzzleID, FEN: row.FEN, Rating: int(row.Rating), Themes: themes})
	}
	return out, nil
}
