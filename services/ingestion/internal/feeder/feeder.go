// Package feeder lands exported files from a raw directory: survey CSVs,
// job board scrapes and trend dumps that no API client fetches.
package feeder

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"talentinsight/services/ingestion/internal/ingestor"

	"go.uber.org/zap"
)

type Result struct {
	Sources map[string]ingestor.BatchResult
	Files   int
	// Failed counts files that could not be read or parsed.
	Failed int
}

type Feeder struct {
	dir      string
	ingestor *ingestor.Ingestor
	logger   *zap.Logger
}

func New(dir string, ing *ingestor.Ingestor, logger *zap.Logger) *Feeder {
	return &Feeder{dir: dir, ingestor: ing, logger: logger}
}

// SourceName is the file's base name without extension, e.g.
// "stackoverflow_survey_2024.csv" lands as "stackoverflow_survey_2024".
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Files lists the .json and .csv files under dir in lexical order.
func Files(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".csv":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Feed ingests every file under the directory. A bad file is logged and
// counted; only store failures abort.
func (f *Feeder) Feed(ctx context.Context) (Result, error) {
	res := Result{Sources: make(map[string]ingestor.BatchResult)}

	if _, err := os.Stat(f.dir); errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn("raw directory does not exist", zap.String("dir", f.dir))
		return res, nil
	}

	files, err := Files(f.dir)
	if err != nil {
		return res, fmt.Errorf("list raw directory %s: %w", f.dir, err)
	}
	if len(files) == 0 {
		f.logger.Info("no .json or .csv files in raw directory", zap.String("dir", f.dir))
		return res, nil
	}

	for _, path := range files {
		source := SourceName(path)
		payloads, err := Load(path)
		if err != nil {
			res.Failed++
			f.logger.Error("failed to load raw file", zap.String("path", path), zap.Error(err))
			continue
		}
		res.Files++

		batch, err := f.ingestor.IngestBatch(ctx, source, payloads)
		prev := res.Sources[source]
		prev.Stored += batch.Stored
		prev.Duplicates += batch.Duplicates
		prev.Rejected += batch.Rejected
		res.Sources[source] = prev
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// Load reads a JSON file (one object or an array of them) or a CSV file with
// a header row into one payload per document.
func Load(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(data)
	case ".csv":
		return loadCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported file type %s", filepath.Ext(path))
	}
}

func loadJSON(data []byte) ([][]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		return [][]byte{trimmed}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

// loadCSV turns each row into an object keyed by header. Fully empty rows
// are dropped; empty cells stay empty strings.
func loadCSV(r io.Reader) ([][]byte, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var out [][]byte
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		doc := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			doc[col] = v
		}
		if empty {
			continue
		}

		payload, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, payload)
	}
	return out, nil
}
