package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

func (s *Server) renderTemplate(w http.ResponseWriter, tmpl string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := templates.ExecuteTemplate(w, tmpl+".html", data); err != nil {
		slog.Error("Failed to execute template", "template", tmpl, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
	}
}
