package sample

import (
	"encoding/csv"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/getmemscope/memscope/pkg/observability"
)

// baseHeader is the fixed CSV column set, before registered counter columns.
var baseHeader = []string{
	"timestamp", "elapsed_sec", "rss_bytes", "heap_alloc_bytes",
	"heap_inuse_bytes", "heap_objects", "heap_sys_bytes", "goroutines",
}

// Counter is a named external value recorded with every sample, such as a
// processed-item count maintained by the workload under observation.
type Counter struct {
	Name  string
	Value func() int64
}

// Tracker samples process memory at a fixed interval.
type Tracker struct {
	mu      sync.Mutex
	samples []Sample

	interval time.Duration
	counters []Counter
	onSample func(Sample)
	pid      int // 0 = self

	startTime time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	csvPath string
	csvFile *os.File
	csvW    *csv.Writer
	warnf   func(format string, args ...any)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCSVFile enables real-time CSV export to the given path.
func WithCSVFile(path string) Option {
	return func(t *Tracker) { t.csvPath = path }
}

// WithCounter registers a counter recorded as an extra CSV column.
func WithCounter(name string, value func() int64) Option {
	return func(t *Tracker) { t.counters = append(t.counters, Counter{Name: name, Value: value}) }
}

// WithOnSample registers a callback invoked after every sample. The callback
// runs on the tracker goroutine and must not block.
func WithOnSample(fn func(Sample)) Option {
	return func(t *Tracker) { t.onSample = fn }
}

// WithProcess observes an external pid instead of the current process.
// Heap statistics are unavailable for external processes.
func WithProcess(pid int) Option {
	return func(t *Tracker) { t.pid = pid }
}

// WithWarnf sets the sink for non-fatal warnings (e.g. CSV create failure).
func WithWarnf(fn func(format string, args ...any)) Option {
	return func(t *Tracker) { t.warnf = fn }
}

// New creates a tracker sampling at the given interval.
func New(interval time.Duration, opts ...Option) *Tracker {
	t := &Tracker{
		samples:  make([]Sample, 0, 1000),
		interval: interval,
		stopCh:   make(chan struct{}),
		warnf:    func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start takes an initial sample and begins the sampling goroutine.
// A CSV create failure is reported via the warning sink and sampling
// continues without export.
func (t *Tracker) Start() error {
	t.startTime = time.Now()

	if t.csvPath != "" {
		f, err := os.Create(t.csvPath)
		if err != nil {
			t.warnf("create CSV file: %v", err)
		} else {
			t.csvFile = f
			t.csvW = csv.NewWriter(f)
			header := append([]string{}, baseHeader...)
			for _, c := range t.counters {
				header = append(header, c.Name)
			}
			t.csvW.Write(header)
			t.csvW.Flush()
			if err := t.csvW.Error(); err != nil {
				return err
			}
		}
	}

	t.sample()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.sample()
			case <-t.stopCh:
				return
			}
		}
	}()
	return nil
}

// Stop halts sampling, takes a final sample, and closes the CSV file.
// Stop is idempotent.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		t.wg.Wait()

		t.sample()

		if t.csvFile != nil {
			t.csvW.Flush()
			t.csvFile.Close()
		}
	})
}

// CSVPath returns the export path, or empty when export is disabled.
func (t *Tracker) CSVPath() string {
	return t.csvPath
}

// Samples returns a copy of all samples taken so far.
func (t *Tracker) Samples() []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// sample takes one observation, appends it, and writes the CSV row.
func (t *Tracker) sample() {
	s := Sample{
		Timestamp:  time.Now(),
		Goroutines: runtime.NumGoroutine(),
	}
	s.Elapsed = s.Timestamp.Sub(t.startTime)

	if t.pid != 0 {
		if rss, err := ProcessRSS(t.pid); err == nil {
			s.RSSBytes = rss
		}
	} else {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		s.RSSBytes = SelfRSS()
		s.HeapAlloc = mem.HeapAlloc
		s.HeapInuse = mem.HeapInuse
		s.HeapObjects = mem.HeapObjects
		s.HeapSys = mem.HeapSys
	}

	for _, c := range t.counters {
		s.Counters = append(s.Counters, c.Value())
	}

	t.mu.Lock()
	t.samples = append(t.samples, s)
	t.mu.Unlock()

	observability.Sampler().OnSample(s.RSSBytes, s.HeapAlloc, s.Goroutines)

	if t.csvW != nil {
		row := []string{
			s.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(s.Elapsed.Seconds(), 'f', 2, 64),
			strconv.FormatUint(s.RSSBytes, 10),
			strconv.FormatUint(s.HeapAlloc, 10),
			strconv.FormatUint(s.HeapInuse, 10),
			strconv.FormatUint(s.HeapObjects, 10),
			strconv.FormatUint(s.HeapSys, 10),
			strconv.Itoa(s.Goroutines),
		}
		for _, v := range s.Counters {
			row = append(row, strconv.FormatInt(v, 10))
		}
		t.csvW.Write(row)
		t.csvW.Flush()
	}

	if t.onSample != nil {
		t.onSample(s)
	}
}
