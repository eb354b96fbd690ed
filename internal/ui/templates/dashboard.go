// Package templates holds the dashboard page.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/present"
	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

// Panel is one view placeholder on the page.
type Panel struct {
	ID    string
	Title string
	Chart models.ChartKind
}

type Tab struct {
	Name   string
	Panels []Panel
}

type DashboardData struct {
	Title    string
	Subtitle string
	Markets  []string
	Defaults models.Selection
	Tabs     []Tab
}

// Dashboard renders the full page. Tables are filled by the refresh-all
// stream once the page loads.
func Dashboard(data DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		signals, err := initialSignals(data)
		if err != nil {
			return err
		}

		b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
		fmt.Fprintf(&b, "<title>%s</title>\n", templ.EscapeString(data.Title))
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s\"></script>\n", datastarScript)
		b.WriteString(pageStyle)
		b.WriteString("</head>\n")

		fmt.Fprintf(&b, "<body data-signals=\"%s\" data-on-load=\"@get('/sse/refresh-all')\">\n", templ.EscapeString(signals))
		fmt.Fprintf(&b, "<header><h1>%s</h1><p class=\"subtitle\">%s</p></header>\n",
			templ.EscapeString(data.Title), templ.EscapeString(data.Subtitle))

		writeFilters(&b, data)
		writeTabs(&b, data.Tabs)

		b.WriteString("</body>\n</html>\n")

		if err := ctx.Err(); err != nil {
			return err
		}
		_, err = io.WriteString(w, b.String())
		return err
	})
}

func initialSignals(data DashboardData) (string, error) {
	first := ""
	if len(data.Tabs) > 0 {
		first = data.Tabs[0].Name
	}
	markets := data.Defaults.Markets
	if markets == nil {
		markets = []string{}
	}
	raw, err := json.Marshal(map[string]any{
		"markets":   markets,
		"startDate": data.Defaults.Range.Start.Format(present.DateLayout),
		"endDate":   data.Defaults.Range.End.Format(present.DateLayout),
		"tab":       first,
		"charts":    map[string]any{},
		"report":    map[string]any{"filteredRows": 0},
	})
	return string(raw), err
}

func writeFilters(b *strings.Builder, data DashboardData) {
	b.WriteString("<aside class=\"filters\">\n<h2>Filters</h2>\n<fieldset><legend>Market</legend>\n")
	for _, m := range data.Markets {
		esc := templ.EscapeString(m)
		fmt.Fprintf(b, "<label><input type=\"checkbox\" data-bind-markets value=\"%s\"> %s</label>\n", esc, esc)
	}
	b.WriteString("</fieldset>\n")
	fmt.Fprintf(b, "<label>From <input type=\"date\" data-bind-start-date min=\"%s\" max=\"%s\"></label>\n",
		data.Defaults.Range.Start.Format(present.DateLayout), data.Defaults.Range.End.Format(present.DateLayout))
	fmt.Fprintf(b, "<label>To <input type=\"date\" data-bind-end-date min=\"%s\" max=\"%s\"></label>\n",
		data.Defaults.Range.Start.Format(present.DateLayout), data.Defaults.Range.End.Format(present.DateLayout))
	b.WriteString("<button data-on-click=\"@get('/sse/refresh-all')\">Apply</button>\n")
	b.WriteString("<p class=\"row-count\">Rows: <span data-text=\"$report.filteredRows\"></span></p>\n")
	b.WriteString("</aside>\n")
}

func writeTabs(b *strings.Builder, tabs []Tab) {
	b.WriteString("<nav class=\"tabs\">\n")
	for _, t := range tabs {
		name := templ.EscapeString(t.Name)
		fmt.Fprintf(b, "<button data-class-active=\"$tab == '%s'\" data-on-click=\"$tab = '%s'\">%s</button>\n", name, name, name)
	}
	b.WriteString("</nav>\n<main>\n")

	for _, t := range tabs {
		name := templ.EscapeString(t.Name)
		fmt.Fprintf(b, "<section class=\"tab\" data-show=\"$tab == '%s'\">\n", name)
		for _, p := range t.Panels {
			fmt.Fprintf(b, "<div class=\"panel\" data-chart=\"%s\">\n<h3>%s</h3>\n", p.Chart, templ.EscapeString(p.Title))
			fmt.Fprintf(b, "<div id=\"%s\" class=\"view-table\"><p class=\"loading\">Loading...</p></div>\n",
				templ.EscapeString(present.ElementID(p.ID)))
			b.WriteString("</div>\n")
		}
		b.WriteString("</section>\n")
	}
	b.WriteString("</main>\n")
}

const pageStyle = `<style>
body { font-family: system-ui, sans-serif; margin: 0; display: grid; grid-template-columns: 260px 1fr; }
header { grid-column: 1 / -1; padding: 1rem 2rem; background: #1f2937; color: #f9fafb; }
.subtitle { margin: 0; color: #9ca3af; }
.filters { padding: 1rem; border-right: 1px solid #e5e7eb; }
.filters label { display: block; margin: .25rem 0; }
.tabs { grid-column: 2; display: flex; gap: .5rem; padding: 1rem 2rem 0; }
.tabs button.active { font-weight: bold; border-bottom: 2px solid #2563eb; }
main { grid-column: 2; padding: 1rem 2rem; }
.panel { margin-bottom: 2rem; }
.modern-table { border-collapse: collapse; width: 100%; }
.modern-table th, .modern-table td { border-bottom: 1px solid #e5e7eb; padding: .35rem .5rem; text-align: left; }
.no-data, .loading, .table-note { color: #6b7280; }
</style>
`
