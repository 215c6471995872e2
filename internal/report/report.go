package report

import (
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/seoscope/internal/scoring"
	"github.com/FranksOps/seoscope/internal/scraper"
	"github.com/FranksOps/seoscope/internal/storage"
)

// Formats lists the accepted values for Write.
var Formats = []string{"text", "json", "html"}

// ErrUnknownFormat is returned by Write for a format outside Formats.
var ErrUnknownFormat = errors.New("unknown report format")

// Write renders rec in the named format.
func Write(w io.Writer, format string, rec *storage.ScanRecord) error {
	switch format {
	case "text", "":
		return WriteText(w, rec)
	case "json":
		return WriteJSON(w, rec)
	case "html":
		return WriteHTML(w, rec)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Summary contains aggregated figures about a set of stored scans.
type Summary struct {
	Scans        int
	Domains      map[string]int
	AverageTotal float64
	Best         *storage.ScanRecord
	Worst        *storage.ScanRecord
	FirstScan    time.Time
	LastScan     time.Time
}

// GenerateSummary aggregates scan records, e.g. the output of a history query.
func GenerateSummary(records []*storage.ScanRecord) Summary {
	s := Summary{Domains: make(map[string]int)}
	if len(records) == 0 {
		return s
	}

	s.FirstScan = records[0].CreatedAt
	s.LastScan = records[0].CreatedAt

	sum := 0
	for _, r := range records {
		s.Scans++
		s.Domains[r.Domain]++
		sum += r.Scores.Total

		if s.Best == nil || r.Scores.Total > s.Best.Scores.Total {
			s.Best = r
		}
		if s.Worst == nil || r.Scores.Total < s.Worst.Scores.Total {
			s.Worst = r
		}
		if r.CreatedAt.Before(s.FirstScan) {
			s.FirstScan = r.CreatedAt
		}
		if r.CreatedAt.After(s.LastScan) {
			s.LastScan = r.CreatedAt
		}
	}

	s.AverageTotal = float64(sum) / float64(s.Scans)
	return s
}

// WriteJSON writes the full record as indented JSON.
func WriteJSON(w io.Writer, rec *storage.ScanRecord) error {
	return writeJSON(w, rec)
}

// WriteJSONList writes records as an indented JSON array.
func WriteJSONList(w io.Writer, records []*storage.ScanRecord) error {
	if records == nil {
		records = []*storage.ScanRecord{}
	}
	return writeJSON(w, records)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

type metricView struct {
	Name           string
	Score          float64
	Max            float64
	Raw            string
	Insight        string
	Recommendation string
}

type pillarView struct {
	Label   string
	Score   int
	Max     int
	Metrics []metricView
}

type crawlerView struct {
	Agent   string
	Allowed bool
}

type view struct {
	*storage.ScanRecord
	Pillars  []pillarView
	Crawlers []crawlerView
}

// newView orders pillars and metrics the way Definitions lists them.
func newView(rec *storage.ScanRecord) view {
	v := view{ScanRecord: rec}
	byPillar := make(map[scoring.Pillar]*pillarView, len(scoring.Pillars))
	for _, p := range scoring.Pillars {
		v.Pillars = append(v.Pillars, pillarView{Label: p.Label(), Score: rec.Scores.Pillar(p), Max: p.Max()})
	}
	for i, p := range scoring.Pillars {
		byPillar[p] = &v.Pillars[i]
	}

	for _, d := range scoring.Definitions() {
		m, ok := rec.Scores.Breakdown[d.Pillar][d.Name]
		if !ok {
			continue
		}
		raw := ""
		if m.RawValue != nil {
			raw = fmt.Sprint(m.RawValue)
		}
		pv := byPillar[d.Pillar]
		pv.Metrics = append(pv.Metrics, metricView{
			Name:           d.Name,
			Score:          m.Score,
			Max:            m.Max,
			Raw:            raw,
			Insight:        m.Insight,
			Recommendation: m.Recommendation,
		})
	}

	for _, agent := range scraper.AICrawlers {
		if allowed, ok := rec.AIAccess[agent]; ok {
			v.Crawlers = append(v.Crawlers, crawlerView{Agent: agent, Allowed: allowed})
		}
	}
	return v
}

func position(p *int) string {
	if p == nil {
		return "not ranked"
	}
	return fmt.Sprintf("#%d", *p)
}

var funcs = map[string]any{"position": position}

const textTmpl = `SEO Scope Report: {{.URL}}
----------------
Scanned:   {{.CreatedAt.Format "2006-01-02 15:04:05"}} ({{.Duration}})
Total:     {{.Scores.Total}}/100

Pillars:
{{- range .Pillars}}
  {{printf "%-20s" .Label}} {{.Score}}/{{.Max}}
  {{- range .Metrics}}
    {{printf "%-18s" .Name}} {{printf "%4.1f" .Score}}/{{.Max}}  {{.Raw}}
  {{- end}}
{{- end}}

Recommendations:
{{- range .Recommendations}}
  [{{.Priority}}] {{.Title}}: {{.Impact}}
    {{.Description}}
{{- else}}
  None
{{- end}}

Keywords: {{.KeywordSummary.Total}} found, {{.KeywordSummary.Ranked}} ranked, {{.KeywordSummary.Top10}} in top 10
{{- range .Keywords}}
  {{.Keyword}} ({{.Type}}, {{.Intent}}) {{position .Position}}
{{- end}}
{{- if .KeywordMentions}}

Keyword mentions:
{{- range .KeywordMentions}}
  {{.Keyword}}: {{.Count}}
{{- end}}
{{- end}}
{{- if .Crawlers}}

AI crawler access:
{{- range .Crawlers}}
  {{printf "%-16s" .Agent}} {{if .Allowed}}allowed{{else}}blocked{{end}}
{{- end}}
{{- end}}
{{- if .Comparison}}

Comparison: rank {{.Comparison.Rank}} of {{.Comparison.Of}}, competitor average {{printf "%.1f" .Comparison.AvgCompetitorScore}}
{{- range .Comparison.Gaps}}
  {{printf "%-20s" .Pillar}} {{.Target}} vs {{printf "%.1f" .CompetitorAvg}} (gap {{printf "%+.1f" .Gap}})
{{- end}}
{{- range .Competitors}}
  {{.URL}}: {{if .Error}}failed ({{.Error}}){{else}}{{.Total}}{{end}}
{{- end}}
{{- end}}

Warnings:
{{- range .Warnings}}
  {{.}}
{{- else}}
  None
{{- end}}
`

// WriteText writes a human-readable report to the provided writer.
func WriteText(w io.Writer, rec *storage.ScanRecord) error {
	t, err := template.New("textReport").Funcs(funcs).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}
	if err := t.Execute(w, newView(rec)); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>SEO Scope Report: {{.URL}}</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  .HIGH { color: #b00; } .MEDIUM { color: #b60; } .LOW { color: #666; }
</style>
</head>
<body>
  <h1>SEO Scope Report</h1>
  <p><strong>URL:</strong> {{.URL}}<br>
  <strong>Scanned:</strong> {{.CreatedAt.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Total</div>
    <div class="stat-val">{{.Scores.Total}}/100</div>
  </div>
  {{- range .Pillars}}
  <div class="stat-card">
    <div>{{.Label}}</div>
    <div class="stat-val">{{.Score}}/{{.Max}}</div>
  </div>
  {{- end}}

  {{- range .Pillars}}
  <h3>{{.Label}}</h3>
  <table>
    <tr><th>Metric</th><th>Score</th><th>Value</th><th>Insight</th></tr>
    {{- range .Metrics}}
    <tr><td>{{.Name}}</td><td>{{printf "%.1f" .Score}}/{{.Max}}</td><td>{{.Raw}}</td><td>{{.Insight}}</td></tr>
    {{- end}}
  </table>
  {{- end}}

  <h3>Recommendations</h3>
  <table>
    <tr><th>Priority</th><th>Title</th><th>Impact</th><th>Description</th></tr>
    {{- range .Recommendations}}
    <tr><td class="{{.Priority}}">{{.Priority}}</td><td>{{.Title}}</td><td>{{.Impact}}</td><td>{{.Description}}</td></tr>
    {{- else}}
    <tr><td colspan="4">None</td></tr>
    {{- end}}
  </table>

  <h3>Keywords</h3>
  <table>
    <tr><th>Keyword</th><th>Type</th><th>Intent</th><th>Position</th></tr>
    {{- range .Keywords}}
    <tr><td>{{.Keyword}}</td><td>{{.Type}}</td><td>{{.Intent}}</td><td>{{position .Position}}</td></tr>
    {{- else}}
    <tr><td colspan="4">None</td></tr>
    {{- end}}
  </table>

  {{- if .Crawlers}}
  <h3>AI Crawler Access</h3>
  <table>
    <tr><th>Agent</th><th>Access</th></tr>
    {{- range .Crawlers}}
    <tr><td>{{.Agent}}</td><td style="color: {{if .Allowed}}green{{else}}red{{end}};">{{if .Allowed}}allowed{{else}}blocked{{end}}</td></tr>
    {{- end}}
  </table>
  {{- end}}

  {{- if .Comparison}}
  <h3>Comparison</h3>
  <p>Rank {{.Comparison.Rank}} of {{.Comparison.Of}}; competitor average {{printf "%.1f" .Comparison.AvgCompetitorScore}}</p>
  <table>
    <tr><th>Pillar</th><th>Target</th><th>Competitor avg</th><th>Gap</th></tr>
    {{- range .Comparison.Gaps}}
    <tr><td>{{.Pillar}}</td><td>{{.Target}}</td><td>{{printf "%.1f" .CompetitorAvg}}</td><td>{{printf "%+.1f" .Gap}}</td></tr>
    {{- end}}
  </table>
  {{- end}}

  <h3>Warnings</h3>
  <ul>
    {{- range .Warnings}}
    <li>{{.}}</li>
    {{- else}}
    <li>None</li>
    {{- end}}
  </ul>
</body>
</html>
`

// WriteHTML writes a standalone HTML report. Page-derived strings are escaped.
func WriteHTML(w io.Writer, rec *storage.ScanRecord) error {
	t, err := htmltemplate.New("htmlReport").Funcs(funcs).Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html template: %w", err)
	}
	if err := t.Execute(w, newView(rec)); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

const historyTmpl = `Scan History
------------
{{- range .Records}}
{{.CreatedAt.Format "2006-01-02 15:04:05"}}  {{printf "%3d" .Scores.Total}}  {{.ID}}  {{.URL}}
{{- else}}
No scans found.
{{- end}}
{{- if .Summary.Scans}}

Scans:         {{.Summary.Scans}} across {{len .Summary.Domains}} domains
Average total: {{printf "%.1f" .Summary.AverageTotal}}
Best:          {{.Summary.Best.Scores.Total}} {{.Summary.Best.URL}}
Worst:         {{.Summary.Worst.Scores.Total}} {{.Summary.Worst.URL}}
{{- end}}
`

// WriteHistory writes one line per record followed by a summary.
func WriteHistory(w io.Writer, records []*storage.ScanRecord) error {
	t, err := template.New("history").Parse(historyTmpl)
	if err != nil {
		return fmt.Errorf("parse history template: %w", err)
	}
	data := struct {
		Records []*storage.ScanRecord
		Summary Summary
	}{records, GenerateSummary(records)}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("render history: %w", err)
	}
	return nil
}
