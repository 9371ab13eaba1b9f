package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"bookshop/internal/app"
	"bookshop/internal/domain"
)

//go:embed templates
var templatesFS embed.FS

var pageNames = []string{
	"register.html",
	"login.html",
	"book_list.html",
	"book_detail.html",
	"cart.html",
	"admin_book_list.html",
	"admin_book_form.html",
}

var templates = mustParseTemplates()

func mustParseTemplates() map[string]*template.Template {
	funcs := template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl := template.Must(
			template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name),
		)
		out[name] = tmpl
	}
	return out
}

// pageData is the render context shared by all templates. Form holds
// submitted values so failed validations redisplay them.
type pageData struct {
	Title      string
	User       *domain.User
	CartCount  int
	Flashes    []string
	Errors     []string
	Form       map[string]string
	FormAction string
	Books      []domain.Book
	Book       *domain.Book
	Entries    []app.CartEntry
	Total      float64
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data pageData) {
	tmpl, ok := templates[page]
	if !ok {
		slog.Error("unknown template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		slog.Error("render template", "page", page, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
