// Package renderer renders mcap reports as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/microcap"
)

//go:embed templates/*.md
var templateFS embed.FS

var templates, _ = fs.Sub(templateFS, "templates")

var funcs = template.FuncMap{
	// pct formats a fraction as a percentage
	"pct":       func(f float64) string { return microcap.PercentOf(f).String() },
	"signedPct": func(f float64) string { return microcap.PercentOf(f).SignedString() },
}

// RenderDaily renders the report of a daily run.
func RenderDaily(r *microcap.DailyReport) string {
	partials := map[string]string{
		"daily_title":     "daily_title.md",
		"daily_summary":   "daily_summary.md",
		"daily_positions": "daily_positions.md",
		"daily_alerts":    "daily_alerts.md",
		"daily_watch":     "daily_watch.md",
		"daily_metrics":   "daily_metrics.md",
	}
	return renderTemplate("daily", "daily.md", partials, NewDaily(r))
}

// RenderPerformance renders the portfolio metrics next to the benchmark ones.
func RenderPerformance(m microcap.Metrics, b microcap.Benchmark) string {
	partials := map[string]string{
		"performance_metrics":  "performance_metrics.md",
		"performance_invested": "performance_invested.md",
	}
	return renderTemplate("performance", "performance.md", partials, NewPerformance(m, b))
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
