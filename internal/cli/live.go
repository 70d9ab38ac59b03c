package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/getmemscope/memscope/pkg/sample"
)

// liveDashboard wraps the bubbletea program shown during 'record --live'.
// Samples are pushed from the tracker goroutine via Push.
type liveDashboard struct {
	prog    *tea.Program
	samples chan sample.Sample
	done    chan struct{}
}

func newLiveDashboard(csvPath string) *liveDashboard {
	m := liveModel{csvPath: csvPath, start: time.Now()}
	d := &liveDashboard{
		prog:    tea.NewProgram(m, tea.WithOutput(os.Stderr)),
		samples: make(chan sample.Sample, 64),
		done:    make(chan struct{}),
	}
	go d.relay()
	return d
}

// relay forwards buffered samples to the program. Program.Send blocks until
// Run has started, so forwarding happens off the tracker goroutine: the
// tracker takes its initial sample before the dashboard is on screen.
func (d *liveDashboard) relay() {
	for {
		select {
		case s := <-d.samples:
			d.prog.Send(sampleMsg(s))
		case <-d.done:
			return
		}
	}
}

// Push feeds a new sample into the dashboard. It never blocks the tracker;
// samples are dropped when the relay buffer is full.
func (d *liveDashboard) Push(s sample.Sample) {
	select {
	case d.samples <- s:
	default:
	}
}

// Run blocks until the user quits the dashboard.
func (d *liveDashboard) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		d.prog.Send(tea.Quit())
	}()
	d.prog.Run()
	close(d.done)
}

// Quit closes the dashboard programmatically.
func (d *liveDashboard) Quit() {
	d.prog.Send(tea.Quit())
}

// sampleMsg carries one tracker sample into the model.
type sampleMsg sample.Sample

// liveModel is the bubbletea model for the recording dashboard.
type liveModel struct {
	csvPath string
	start   time.Time

	latest   sample.Sample
	count    int
	maxRSSMB float64
}

func (m liveModel) Init() tea.Cmd {
	return nil
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case sampleMsg:
		m.latest = sample.Sample(msg)
		m.count++
		if rss := m.latest.RSSMB(); rss > m.maxRSSMB {
			m.maxRSSMB = rss
		}
	}
	return m, nil
}

func (m liveModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Recording"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.csvPath))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit and analyze"))
	b.WriteString("\n\n")

	if m.count == 0 {
		b.WriteString(StyleDim.Render("waiting for first sample..."))
		b.WriteString("\n")
		return b.String()
	}

	s := m.latest
	rows := []struct{ key, value string }{
		{"Elapsed", s.Elapsed.Round(time.Second).String()},
		{"RSS", fmt.Sprintf("%.1f MB (max %.1f)", s.RSSMB(), m.maxRSSMB)},
	}
	if s.HeapAlloc > 0 {
		rows = append(rows, struct{ key, value string }{
			"Heap", fmt.Sprintf("%.2f MB", s.HeapMB())})
	}
	rows = append(rows,
		struct{ key, value string }{"Goroutines", fmt.Sprintf("%d", s.Goroutines)},
		struct{ key, value string }{"Samples", fmt.Sprintf("%d", m.count)},
	)

	for _, r := range rows {
		b.WriteString(StyleDim.Render(fmt.Sprintf("%-11s", r.key)))
		b.WriteString(StyleValue.Render(r.value))
		b.WriteString("\n")
	}

	return b.String()
}
