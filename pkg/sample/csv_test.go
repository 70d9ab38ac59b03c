package sample

import (
	"strings"
	"testing"
	"time"

	"github.com/getmemscope/memscope/pkg/errors"
)

func TestReadCSV(t *testing.T) {
	in := `timestamp,elapsed_sec,rss_bytes,heap_alloc_bytes,heap_inuse_bytes,heap_objects,heap_sys_bytes,goroutines
2025-01-01T00:00:00Z,0.00,52428800,10485760,11534336,1000,20971520,8
2025-01-01T00:00:30Z,30.00,62914560,12582912,13631488,1200,20971520,9
`
	samples, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}

	s := samples[1]
	if s.Elapsed != 30*time.Second {
		t.Errorf("Elapsed = %v, want 30s", s.Elapsed)
	}
	if s.RSSBytes != 62914560 {
		t.Errorf("RSSBytes = %d", s.RSSBytes)
	}
	if s.HeapAlloc != 12582912 {
		t.Errorf("HeapAlloc = %d", s.HeapAlloc)
	}
	if s.HeapObjects != 1200 {
		t.Errorf("HeapObjects = %d", s.HeapObjects)
	}
	if s.Goroutines != 9 {
		t.Errorf("Goroutines = %d", s.Goroutines)
	}
	want := time.Date(2025, 1, 1, 0, 0, 30, 0, time.UTC)
	if !s.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", s.Timestamp, want)
	}
}

func TestReadCSVMinimalColumns(t *testing.T) {
	in := `elapsed_sec,rss_bytes,heap_allocated_bytes
0,52428800,10485760
60,62914560,12582912
`
	samples, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].HeapAlloc != 10485760 {
		t.Errorf("legacy heap column not read: %d", samples[0].HeapAlloc)
	}
	if samples[0].Goroutines != 0 || !samples[0].Timestamp.IsZero() {
		t.Error("missing optional columns should decode as zero values")
	}
}

func TestReadCSVMissingColumns(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no elapsed", "rss_bytes,heap_alloc_bytes\n1,2\n"},
		{"no rss", "elapsed_sec,heap_alloc_bytes\n1,2\n"},
		{"no heap", "elapsed_sec,rss_bytes\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			if !errors.Is(err, errors.ErrCodeInvalidColumn) {
				t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidColumn)
			}
		})
	}
}

func TestReadCSVInvalidValues(t *testing.T) {
	in := `elapsed_sec,rss_bytes,heap_alloc_bytes
abc,52428800,10485760
`
	_, err := ReadCSV(strings.NewReader(in))
	if !errors.Is(err, errors.ErrCodeCSVParse) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeCSVParse)
	}
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the offending line: %v", err)
	}
}

func TestReadCSVShortRow(t *testing.T) {
	in := `elapsed_sec,rss_bytes,heap_alloc_bytes
0
`
	_, err := ReadCSV(strings.NewReader(in))
	if !errors.Is(err, errors.ErrCodeCSVParse) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeCSVParse)
	}
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the offending line: %v", err)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	if !errors.Is(err, errors.ErrCodeCSVParse) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeCSVParse)
	}
}

func TestReadCSVFileNotFound(t *testing.T) {
	_, err := ReadCSVFile("testdata/does-not-exist.csv")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}
