package series

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/getmemscope/memscope/pkg/errors"
)

// ReadFile reads a recording CSV from disk and converts it to a Series.
func ReadFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no such file: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCSVParse, err, "open %s", path)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCSVParse, err, "read %s", path)
	}
	return s, nil
}

// Read decodes a recording CSV. The first row is the header; elapsed_sec,
// rss_bytes, and one of the heap columns must be present. Extra columns
// (goroutine counts, custom counters) are ignored.
func Read(r io.Reader) (*Series, error) {
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

	elapsedIdx, ok := cols[ColElapsedSec]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidColumn, "missing column %q", ColElapsedSec)
	}
	rssIdx, ok := cols[ColRSSBytes]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidColumn, "missing column %q", ColRSSBytes)
	}
	heapIdx, ok := cols[ColHeapAlloc]
	if !ok {
		heapIdx, ok = cols[ColHeapAllocLegacy]
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidColumn,
			"missing column %q (or %q)", ColHeapAlloc, ColHeapAllocLegacy)
	}

	s := &Series{}
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
				"line %d: invalid %s %q", line, ColElapsedSec, row[elapsedIdx])
		}
		rss, err := strconv.ParseUint(row[rssIdx], 10, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeCSVParse,
				"line %d: invalid %s %q", line, ColRSSBytes, row[rssIdx])
		}
		heap, err := strconv.ParseUint(row[heapIdx], 10, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeCSVParse,
				"line %d: invalid heap bytes %q", line, row[heapIdx])
		}

		s.Times = append(s.Times, MinutesFromSeconds(elapsed))
		s.RSS = append(s.RSS, MBFromBytes(float64(rss)))
		s.Heap = append(s.Heap, MBFromBytes(float64(heap)))
	}

	return s, nil
}
