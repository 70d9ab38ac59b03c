package trend

import (
	"math"
	"testing"
	"time"

	"github.com/getmemscope/memscope/pkg/sample"
)

// linearSamples builds a recording where RSS grows by growthKBPerMin,
// sampled once per minute.
func linearSamples(n int, startBytes uint64, growthKBPerMin float64) []sample.Sample {
	samples := make([]sample.Sample, n)
	for i := range samples {
		samples[i] = sample.Sample{
			Elapsed:    time.Duration(i) * time.Minute,
			RSSBytes:   startBytes + uint64(growthKBPerMin*1024*float64(i)),
			HeapAlloc:  10 << 20,
			Goroutines: 10,
		}
	}
	return samples
}

func TestAnalyzeFlat(t *testing.T) {
	r := Analyze(linearSamples(30, 100<<20, 0))

	if r.LeakDetected {
		t.Errorf("flat recording flagged as leak: %s", r.LeakDescription)
	}
	if math.Abs(r.SlopeKBPerMin) > 0.01 {
		t.Errorf("slope = %v, want ~0", r.SlopeKBPerMin)
	}
	if r.StartRSSMB != 100 || r.EndRSSMB != 100 || r.MaxRSSMB != 100 {
		t.Errorf("RSS MB = %v/%v/%v, want 100", r.StartRSSMB, r.EndRSSMB, r.MaxRSSMB)
	}
	if r.DurationMinutes != 29 {
		t.Errorf("DurationMinutes = %v, want 29", r.DurationMinutes)
	}
}

func TestAnalyzeLinearGrowth(t *testing.T) {
	// 500 KB/min perfectly linear: slope criterion should fire.
	r := Analyze(linearSamples(30, 100<<20, 500))

	if !r.LeakDetected {
		t.Fatal("linear growth not flagged as leak")
	}
	if math.Abs(r.SlopeKBPerMin-500) > 1 {
		t.Errorf("slope = %v, want ~500", r.SlopeKBPerMin)
	}
	if r.RSquared < 0.99 {
		t.Errorf("R² = %v, want ~1 for perfect line", r.RSquared)
	}
}

func TestAnalyzeSlowGrowthNotFlagged(t *testing.T) {
	// 50 KB/min is under the slope threshold even with perfect fit.
	r := Analyze(linearSamples(30, 100<<20, 50))
	if r.LeakDetected {
		t.Errorf("slow growth flagged as leak: %s", r.LeakDescription)
	}
}

func TestAnalyzeGoroutineDoubling(t *testing.T) {
	samples := linearSamples(10, 100<<20, 0)
	samples[len(samples)-1].Goroutines = 25 // start is 10

	r := Analyze(samples)
	if !r.LeakDetected {
		t.Fatal("goroutine doubling not flagged")
	}
	if r.GoroutineStart != 10 || r.GoroutineEnd != 25 {
		t.Errorf("goroutines = %d -> %d", r.GoroutineStart, r.GoroutineEnd)
	}
}

func TestAnalyzeTooFewSamples(t *testing.T) {
	r := Analyze(linearSamples(1, 100<<20, 0))
	if r.LeakDetected {
		t.Error("single sample should not produce a verdict")
	}
	if r.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", r.SampleCount)
	}

	r = Analyze(nil)
	if r.SampleCount != 0 {
		t.Errorf("SampleCount = %d, want 0", r.SampleCount)
	}
}

func TestVerdict(t *testing.T) {
	r := Report{}
	if r.Verdict() != "No significant leak detected" {
		t.Errorf("Verdict = %q", r.Verdict())
	}
	r = Report{LeakDetected: true, LeakDescription: "x"}
	if r.Verdict() != "POTENTIAL MEMORY LEAK DETECTED: x" {
		t.Errorf("Verdict = %q", r.Verdict())
	}
}
