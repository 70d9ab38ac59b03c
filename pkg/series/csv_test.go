package series

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/getmemscope/memscope/pkg/errors"
)

const sampleCSV = `timestamp,elapsed_sec,rss_bytes,heap_alloc_bytes,goroutines
2025-01-01T00:00:00Z,0.00,52428800,10485760,12
2025-01-01T00:01:00Z,60.00,62914560,15728640,12
2025-01-01T00:03:00Z,180.00,73400320,20971520,13
`

func TestRead(t *testing.T) {
	s, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	wantTimes := []float64{0, 1, 3}
	wantRSS := []float64{50, 60, 70}
	wantHeap := []float64{10, 15, 20}
	for i := range wantTimes {
		if s.Times[i] != wantTimes[i] {
			t.Errorf("Times[%d] = %v, want %v", i, s.Times[i], wantTimes[i])
		}
		if s.RSS[i] != wantRSS[i] {
			t.Errorf("RSS[%d] = %v, want %v", i, s.RSS[i], wantRSS[i])
		}
		if s.Heap[i] != wantHeap[i] {
			t.Errorf("Heap[%d] = %v, want %v", i, s.Heap[i], wantHeap[i])
		}
	}

	if got := s.Duration(); got != 3 {
		t.Errorf("Duration = %v, want 3", got)
	}
}

func TestReadRounding(t *testing.T) {
	csv := "elapsed_sec,rss_bytes,heap_alloc_bytes\n100,1234567,7654321\n"
	s, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	// 100/60 = 1.666... -> 1.67; 1234567/1048576 = 1.177... -> 1.18
	if s.Times[0] != 1.67 {
		t.Errorf("Times[0] = %v, want 1.67", s.Times[0])
	}
	if s.RSS[0] != 1.18 {
		t.Errorf("RSS[0] = %v, want 1.18", s.RSS[0])
	}
	if s.Heap[0] != 7.3 {
		t.Errorf("Heap[0] = %v, want 7.3", s.Heap[0])
	}
}

func TestReadLegacyHeapColumn(t *testing.T) {
	csv := "elapsed_sec,rss_bytes,heap_allocated_bytes\n0,1048576,2097152\n"
	s, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if s.Heap[0] != 2 {
		t.Errorf("Heap[0] = %v, want 2", s.Heap[0])
	}
}

func TestReadMissingColumns(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"no elapsed", "rss_bytes,heap_alloc_bytes\n1,2\n"},
		{"no rss", "elapsed_sec,heap_alloc_bytes\n1,2\n"},
		{"no heap", "elapsed_sec,rss_bytes\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.csv))
			if !errors.Is(err, errors.ErrCodeInvalidColumn) {
				t.Errorf("error = %v, want INVALID_COLUMN", err)
			}
		})
	}
}

func TestReadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"bad elapsed", "elapsed_sec,rss_bytes,heap_alloc_bytes\nabc,1,2\n"},
		{"bad rss", "elapsed_sec,rss_bytes,heap_alloc_bytes\n1,x,2\n"},
		{"bad heap", "elapsed_sec,rss_bytes,heap_alloc_bytes\n1,2,x\n"},
		{"float rss", "elapsed_sec,rss_bytes,heap_alloc_bytes\n1,2.5,3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.csv))
			if !errors.Is(err, errors.ErrCodeCSVParse) {
				t.Errorf("error = %v, want CSV_PARSE_ERROR", err)
			}
		})
	}
}

func TestReadEmpty(t *testing.T) {
	if _, err := Read(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}

	// Header only: valid, zero samples.
	s, err := Read(strings.NewReader("elapsed_sec,rss_bytes,heap_alloc_bytes\n"))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if !s.Empty() {
		t.Error("expected empty series")
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}
