// Package sample collects process-memory samples over time.
//
// The Tracker runs a ticker goroutine that records resident set size,
// Go heap statistics, goroutine counts, and any registered counters, and
// appends each sample to a CSV file in real time so partial recordings
// survive a crash. By default the Tracker observes its own process; with
// WithProcess it polls an external pid instead, in which case only RSS is
// observable and the heap columns are written as zero.
//
// # Usage
//
//	tracker := sample.New(30*time.Second,
//	    sample.WithCSVFile("results.csv"),
//	    sample.WithCounter("payments", func() int64 { return count.Load() }),
//	)
//	if err := tracker.Start(); err != nil {
//	    return err
//	}
//	defer tracker.Stop()
package sample
