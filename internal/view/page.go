package view

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

// PageData is what the dashboard page is rendered from.
type PageData struct {
	Title       string
	ChartWidth  int
	ChartHeight int
	View        View
}

// RenderPage writes the dashboard HTML page. Cards are rendered server side
// for the first paint; the page then follows updates over the websocket.
func RenderPage(w io.Writer, data PageData) error {
	return pageTemplate.Execute(w, data)
}
