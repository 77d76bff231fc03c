package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"log"
	"maps"
	"net/http"
	"net/url"
	"slices"

	"exporthub/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// templateFuncs escapes user-controlled path segments in links; html/template
// leaves '#' and '?' alone in URLs.
var templateFuncs = template.FuncMap{"seg": url.PathEscape}

// pages holds one template set per page, each parsed with the shared layout.
var pages = func() map[string]*template.Template {
	out := make(map[string]*template.Template)
	for _, name := range []string{"index", "organization", "model_card", "404"} {
		out[name] = template.Must(template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return out
}()

type orgSection struct {
	Name   string
	Models []types.ModelCard
	Total  int
}

type cardField struct {
	Key   string
	Value string
}

type modelView struct {
	Card        types.ModelCard
	Fields      []cardField
	InputSizes  [][]int64
	DownloadURL string
}

func render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		if zlog != nil {
			zlog.Error().Err(err).Str("page", page).Msg("template render failed")
		} else {
			log.Printf("template %s: %v", page, err)
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderNotFound(w http.ResponseWriter, msg string) {
	render(w, http.StatusNotFound, "404", map[string]string{"Message": msg})
}

// indexPage shows every effective organization with its first cards.
func (s *server) indexPage(w http.ResponseWriter, r *http.Request) {
	grouped := s.svc.AllModelsByOrganization()
	sections := make([]orgSection, 0, len(grouped))
	for _, org := range slices.Sorted(maps.Keys(grouped)) {
		models := grouped[org]
		sections = append(sections, orgSection{
			Name:   org,
			Models: models[:min(topModels, len(models))],
			Total:  len(models),
		})
	}
	render(w, http.StatusOK, "index", map[string]any{"Organizations": sections})
}

func (s *server) organizationPage(w http.ResponseWriter, r *http.Request) {
	org := pathParam(r, "organization")
	models := s.svc.ModelsByOrganization(org)
	if len(models) == 0 {
		renderNotFound(w, orgNotFoundMessage(org))
		return
	}
	render(w, http.StatusOK, "organization", map[string]any{"Organization": org, "Models": models})
}

func (s *server) modelPage(w http.ResponseWriter, r *http.Request) {
	org, id := pathParam(r, "organization"), pathParam(r, "modelID")
	card, err := s.svc.Model(org, id)
	if err != nil {
		if status := statusFor(err); status != http.StatusNotFound {
			render(w, status, "404", map[string]string{"Message": err.Error()})
			return
		}
		renderNotFound(w, modelNotFoundMessage(org, id))
		return
	}
	view := modelView{Card: card, Fields: displayFields(card), InputSizes: card.InputSizes()}
	if card.URL() != "" || (card.FileName() != "" && artifactsDir != "") {
		view.DownloadURL = "/download/" + url.PathEscape(org) + "/" + url.PathEscape(id)
	}
	render(w, http.StatusOK, "model_card", view)
}

// displayFields renders pass-through fields in key order; non-string values
// are shown as compact JSON.
func displayFields(card types.ModelCard) []cardField {
	out := make([]cardField, 0, len(card.Fields))
	for _, k := range slices.Sorted(maps.Keys(card.Fields)) {
		v := card.Fields[k]
		s, ok := v.(string)
		if !ok {
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			s = string(b)
		}
		out = append(out, cardField{Key: k, Value: s})
	}
	return out
}
