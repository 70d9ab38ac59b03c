package sample

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/getmemscope/memscope/pkg/errors"
)

// ReadCSVFile reads samples written by a Tracker or a compatible harness.
func ReadCSVFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no such file: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCSVParse, err, "open %s", path)
	}
	defer f.Close()

	samples, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCSVParse, err, "read %s", path)
	}
	return samples, nil
}

// ReadCSV decodes tracker CSV output. elapsed_sec, rss_bytes, and a heap
// column are required; timestamp, the remaining heap statistics, and
// goroutines are optional so that CSVs from reduced harnesses still load.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeCSVParse, "empty file")
	}
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	elapsedIdx, ok := cols["elapsed_sec"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidColumn, "missing column %q", "elapsed_sec")
	}
	rssIdx, ok := cols["rss_bytes"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidColumn, "missing column %q", "rss_bytes")
	}
	heapIdx, ok := cols["heap_alloc_bytes"]
	if !ok {
		heapIdx, ok = cols["heap_allocated_bytes"]
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidColumn,
			"missing column %q (or %q)", "heap_alloc_bytes", "heap_allocated_bytes")
	}

	optUint := func(row []string, col string) uint64 {
		idx, ok := cols[col]
		if !ok || idx >= len(row) {
			return 0
		}
		v, _ := strconv.ParseUint(row[idx], 10, 64)
		return v
	}

	var samples []Sample
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < len(header) {
			return nil, errors.New(errors.ErrCodeCSVParse,
				"line %d: expected %d fields, got %d", line, len(header), len(row))
		}

		elapsed, err := strconv.ParseFloat(row[elapsedIdx], 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeCSVParse,
				"line %d: invalid elapsed_sec %q", line, row[elapsedIdx])
		}
		rss, err := strconv.ParseUint(row[rssIdx], 10, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeCSVParse,
				"line %d: invalid rss_bytes %q", line, row[rssIdx])
		}
		heap, err := strconv.ParseUint(row[heapIdx], 10, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeCSVParse,
				"line %d: invalid heap bytes %q", line, row[heapIdx])
		}

		s := Sample{
			Elapsed:     time.Duration(elapsed * float64(time.Second)),
			RSSBytes:    rss,
			HeapAlloc:   heap,
			HeapInuse:   optUint(row, "heap_inuse_bytes"),
			HeapObjects: optUint(row, "heap_objects"),
			HeapSys:     optUint(row, "heap_sys_bytes"),
			Goroutines:  int(optUint(row, "goroutines")),
		}
		if idx, ok := cols["timestamp"]; ok && idx < len(row) {
			if ts, err := time.Parse(time.RFC3339, row[idx]); err == nil {
				s.Timestamp = ts
			}
		}
		samples = append(samples, s)
	}

	return samples, nil
}
