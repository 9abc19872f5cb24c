package view

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"strings"

	"vehiclemodels/internal/core"
)

// Template names
const (
	TableTemplate = "model_list_table"
	PageTemplate  = "model_list_page"
	PageTitle     = "Vehicle models"
)

// Captions shown instead of rows while the view has nothing to list.
const (
	CaptionLoading = "Loading vehicle models..."
	CaptionFailed  = "Vehicle models could not be loaded."
)

const templateFile = "templates/model_list.html"

//go:embed templates/model_list.html
var templateFS embed.FS

var templates = template.Must(ParseTemplates())

// ParseTemplates parses a fresh copy of the view templates, for callers that
// attach their own functions (such as a gin engine).
func ParseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, templateFile)
}

// Templates returns the shared parsed view templates. Callers must not modify them.
func Templates() *template.Template {
	return templates
}

// Row is one rendered table row. PictureURL holds either a template.URL for
// vetted image sources or the raw string, which the template filters.
type Row struct {
	Key          string
	Name         string
	PictureURL   any
	Manufacturer string
}

// pictureSource marks image sources that are safe in an img src so the
// template emits them unchanged. html/template only trusts http, https and
// mailto on its own, which would rewrite data and ftp pictures.
func pictureSource(raw string) any {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	switch u.Scheme {
	case "", "http", "https":
		return raw
	case "ftp":
		return template.URL(raw) //nolint:gosec // scheme vetted above
	case "data":
		if strings.HasPrefix(strings.ToLower(u.Opaque), "image/") {
			return template.URL(raw) //nolint:gosec // image payloads only
		}
	}
	return raw
}

// TableData is the template input for the model table.
type TableData struct {
	Status  string
	Caption string
	Rows    []Row
}

// PageData is the template input for the full page.
type PageData struct {
	Title          string
	AutoRefresh    bool
	RefreshSeconds int
	Table          TableData
}

// NewTableData maps a state to table rows, keeping the service order.
func NewTableData(state State) TableData {
	data := TableData{Status: state.Status.String()}

	switch state.Status {
	case StatusLoading:
		data.Caption = CaptionLoading
	case StatusFailed:
		data.Caption = CaptionFailed
	case StatusLoaded:
		data.Rows = make([]Row, 0, len(state.Models))
		for _, m := range state.Models {
			data.Rows = append(data.Rows, Row{
				Key:          m.ID.String(),
				Name:         m.Name,
				PictureURL:   pictureSource(m.PictureURL),
				Manufacturer: m.Manufacturer.Name,
			})
		}
	}
	return data
}

// NewPageData wraps a state for the full page template. Loading pages
// refresh themselves when autoRefresh is set.
func NewPageData(state State, autoRefresh bool) PageData {
	return PageData{
		Title:          PageTitle,
		AutoRefresh:    autoRefresh && state.Status == StatusLoading,
		RefreshSeconds: core.ViewRefreshSeconds,
		Table:          NewTableData(state),
	}
}

// RenderState writes the table markup for state.
func RenderState(w io.Writer, state State) error {
	return templates.ExecuteTemplate(w, TableTemplate, NewTableData(state))
}

// Render writes the table markup for the view's current state.
func (v *ModelListView) Render(w io.Writer) error {
	return RenderState(w, v.Snapshot())
}
