package handlers

import (
	"html/template"
	"strings"

	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/present"
)

const maxTableRows = 50

var viewTableTemplate = template.Must(template.New("viewTable").Parse(`
<div id="{{.ElementID}}" class="view-table">
{{if .NoData}}<p class="no-data">{{.Message}}</p>{{else}}<table class="modern-table">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{if .Truncated}}<p class="table-note">Showing {{len .Rows}} of {{.Total}} rows</p>{{end}}{{end}}
</div>`))

type tableData struct {
	ElementID string
	NoData    bool
	Message   string
	Headers   []string
	Rows      [][]string
	Total     int
	Truncated bool
}

func renderViewTable(s models.Summary) (string, error) {
	data := tableData{
		ElementID: present.ElementID(s.ID),
		NoData:    s.NoData,
		Message:   s.Message,
		Headers:   present.Headers(s.Columns),
		Total:     len(s.Rows),
	}

	rows := s.Rows
	if len(rows) > maxTableRows {
		rows = rows[:maxTableRows]
		data.Truncated = true
	}
	data.Rows = make([][]string, len(rows))
	for i, row := range rows {
		data.Rows[i] = present.Row(s.Columns, row)
	}

	var buf strings.Builder
	err := viewTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

// signalKey turns a view id such as late-vs-on-time into lateVsOnTime.
func signalKey(id string) string {
	parts := strings.Split(id, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// chartSignal is the chart payload pushed to the page for one view.
type chartSignal struct {
	Title   string           `json:"title"`
	Chart   models.ChartKind `json:"chart"`
	Columns []models.Column  `json:"columns"`
	Rows    [][]any          `json:"rows"`
	NoData  bool             `json:"noData"`
}

func chartSignals(views []models.Summary) map[string]chartSignal {
	out := make(map[string]chartSignal, len(views))
	for _, v := range views {
		out[signalKey(v.ID)] = chartSignal{
			Title:   v.Title,
			Chart:   v.Chart,
			Columns: v.Columns,
			Rows:    v.Rows,
			NoData:  v.NoData,
		}
	}
	return out
}
