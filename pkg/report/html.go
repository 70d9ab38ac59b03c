// Package report renders memory recordings as self-contained HTML pages.
//
// The page embeds one RSS and one heap line chart per dataset using Chart.js
// loaded from CDN, plus a summary box with start/end figures and run
// duration. Output is deterministic for a given input set.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/getmemscope/memscope/pkg/errors"
	"github.com/getmemscope/memscope/pkg/series"
)

// DefaultTitle is the report title used when none is given.
const DefaultTitle = "Memory Test"

// datasetColors is the per-dataset RSS line color cycle.
var datasetColors = []string{"#4a9eff", "#ff9e4a", "#9eff4a", "#ff4a9e"}

// heapColor is the line color for all heap charts.
const heapColor = "#4aff9e"

// RenderHTML renders the comparison page for the given datasets.
// Every dataset must contain at least one sample.
func RenderHTML(datasets []series.Dataset, title string) ([]byte, error) {
	if len(datasets) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no datasets to render")
	}
	if title == "" {
		title = DefaultTitle
	}

	var charts, summaries []template.HTML
	var chartJS, chartInits []template.JS
	for i, ds := range datasets {
		if ds.Series.Empty() {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"dataset %q has no samples", ds.Label)
		}

		safe := SafeLabel(ds.Label)
		color := datasetColors[i%len(datasetColors)]

		charts = append(charts,
			canvas(safe+"Rss"),
			canvas(safe+"Heap"))

		chartJS = append(chartJS,
			jsConst(safe+"T", ds.Series.Times),
			jsConst(safe+"R", ds.Series.RSS),
			jsConst(safe+"H", ds.Series.Heap))

		chartInits = append(chartInits,
			chartInit(safe+"Rss", safe+"T", safe+"R", color, ds.Label+" - RSS (MB)"),
			chartInit(safe+"Heap", safe+"T", safe+"H", heapColor, ds.Label+" - Heap (MB)"))

		summaries = append(summaries, summaryBox(ds))
	}

	data := pageData{
		Title:      title,
		Charts:     charts,
		ChartJS:    chartJS,
		ChartInits: chartInits,
		Summaries:  summaries,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render report")
	}
	return buf.Bytes(), nil
}

// SafeLabel converts a dataset label to a JS-identifier-safe form.
func SafeLabel(label string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(label)
}

func canvas(id string) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<div class="chart-container"><canvas id="%s"></canvas></div>`,
		template.HTMLEscapeString(id)))
}

func jsConst(name string, values []float64) template.JS {
	data, _ := json.Marshal(values)
	return template.JS(fmt.Sprintf("const %s = %s;", name, data))
}

func chartInit(canvasID, timesVar, dataVar, color, chartTitle string) template.JS {
	titleJSON, _ := json.Marshal(chartTitle)
	return template.JS(fmt.Sprintf(
		`new Chart(document.getElementById('%s'), { type: 'line', data: { labels: %s, datasets: [{ data: %s, borderColor: '%s', borderWidth: 1, pointRadius: 0 }] }, options: { ...opts, plugins: { ...opts.plugins, title: { display: true, text: %s, color: '#fff' } } } });`,
		canvasID, timesVar, dataVar, color, titleJSON))
}

func summaryBox(ds series.Dataset) template.HTML {
	s := ds.Series
	rssStart, rssEnd := s.RSS[0], s.RSS[len(s.RSS)-1]
	heapStart, heapEnd := s.Heap[0], s.Heap[len(s.Heap)-1]

	return template.HTML(fmt.Sprintf(`
        <div class="stat-box">
            <h3>%s</h3>
            <p>RSS: %.1f MB → %.1f MB (%+.1f MB)</p>
            <p>Heap: %.2f MB → %.2f MB (%+.2f MB)</p>
            <p>Duration: %.1f min</p>
        </div>`,
		template.HTMLEscapeString(ds.Label),
		rssStart, rssEnd, rssEnd-rssStart,
		heapStart, heapEnd, heapEnd-heapStart,
		s.Duration()))
}

type pageData struct {
	Title      string
	Charts     []template.HTML
	ChartJS    []template.JS
	ChartInits []template.JS
	Summaries  []template.HTML
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Memory Test Results - {{.Title}}</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        body { font-family: sans-serif; padding: 20px; background: #1a1a1a; color: #fff; }
        .chart-container { width: 48%; display: inline-block; margin: 1%; }
        h1 { text-align: center; }
        canvas { background: #2a2a2a; border-radius: 8px; }
        .summary { display: flex; justify-content: center; gap: 40px; margin: 20px 0; flex-wrap: wrap; }
        .stat-box { background: #2a2a2a; padding: 15px 25px; border-radius: 8px; }
        .stat-box h3 { margin-top: 0; color: #4a9eff; }
        .stat-box p { margin: 5px 0; font-family: monospace; }
    </style>
</head>
<body>
    <h1>Memory Test Results - {{.Title}}</h1>
    <div class="summary">{{range .Summaries}}{{.}}{{end}}
    </div>
    {{range .Charts}}{{.}}{{end}}
    <script>
        {{range .ChartJS}}{{.}}
        {{end}}
        const opts = { responsive: true, scales: { x: { title: { display: true, text: 'Minutes', color: '#aaa' }, ticks: { color: '#aaa' } }, y: { title: { display: true, text: 'MB', color: '#aaa' }, ticks: { color: '#aaa' } } }, plugins: { legend: { display: false } } };

        {{range .ChartInits}}{{.}}
        {{end}}
    </script>
</body>
</html>
`))
