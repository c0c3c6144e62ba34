package server

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/SimonPop/lanterns/internal/export"
	"github.com/SimonPop/lanterns/internal/logfields"
	"github.com/SimonPop/lanterns/internal/render"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html lang="{{ .Lang }}">
<head>
<meta charset="utf-8">
<title>{{ .SiteName }} · settings</title>
<style>
  body { font-family: sans-serif; margin: 2rem auto; max-width: 60rem; }
  table { border-collapse: collapse; width: 100%; }
  th, td { text-align: left; vertical-align: top; padding: .25rem .75rem; border-bottom: 1px solid #ddd; }
  th { font-family: monospace; white-space: nowrap; }
  .meta { color: #666; font-size: .9rem; }
</style>
</head>
<body>
<h1>{{ .SiteName }}</h1>
{{ with .Author }}<p>by {{ . }}</p>{{ end }}
{{ with .Bio }}<div class="bio">{{ . }}</div>{{ end }}
<p class="meta">
  snapshot {{ .Snapshot.ID }}<br>
  fingerprint <code>{{ .Snapshot.Fingerprint }}</code><br>
  loaded {{ .LoadedAt }} from {{ range $i, $s := .Snapshot.Sources }}{{ if $i }}, {{ end }}<code>{{ $s }}</code>{{ end }}
</p>
<table>
{{ range .Rows }}<tr><th>{{ .Key }}</th><td>{{ range $i, $l := .Lines }}{{ if $i }}<br>{{ end }}{{ $l }}{{ end }}</td></tr>
{{ end }}</table>
{{ .Script }}
</body>
</html>
`))

type summaryData struct {
	Lang     string
	SiteName string
	Author   string
	Bio      template.HTML
	Snapshot *Snapshot
	LoadedAt string
	Rows     []export.Row
	Script   template.HTML
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	cfg := snap.Config
	bio, err := render.AuthorBio(cfg)
	if err != nil {
		s.log.Warn("Failed to render AUTHOR_BIO", logfields.Error(err))
	}
	data := summaryData{
		Lang:     cfg.DefaultLang,
		SiteName: cfg.SiteName,
		Author:   cfg.Author,
		Bio:      bio,
		Snapshot: snap,
		LoadedAt: snap.LoadedAt.Format(time.RFC3339),
		Rows:     export.Rows(cfg),
		Script:   template.HTML(liveReloadScript),
	}
	if data.SiteName == "" {
		data.SiteName = "Untitled site"
	}

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(FingerprintHeader, snap.Fingerprint)
	_, _ = w.Write(buf.Bytes())
}
