package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/SimonPop/lanterns/internal/config"
)

var pelicanTemplate = template.Must(template.New("pelicanconf").Funcs(template.FuncMap{
	"py": pyLiteral,
}).Parse(`# Generated by lanterns. Edit site.yaml instead of this file.
{{ range . }}
{{ .Key }} = {{ py .Value }}
{{- end }}
`))

func encodePelican(w io.Writer, cfg config.SiteConfig) error {
	return pelicanTemplate.Execute(w, cfg.Settings())
}

// pyLiteral renders v as a Python literal.
func pyLiteral(v any) string {
	switch t := normalize(v).(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		switch {
		case math.IsNaN(t):
			return "float('nan')"
		case math.IsInf(t, 1):
			return "float('inf')"
		case math.IsInf(t, -1):
			return "float('-inf')"
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return pyString(t)
	case time.Time:
		return pyString(t.Format(time.RFC3339))
	case []config.Link:
		items := make([]string, len(t))
		for i, l := range t {
			items[i] = "(" + pyString(l.Label) + ", " + pyString(l.URL) + ")"
		}
		return pyTuple(items)
	case []string:
		items := make([]string, len(t))
		for i, s := range t {
			items[i] = pyString(s)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []any:
		items := make([]string, len(t))
		for i, s := range t {
			items[i] = pyLiteral(s)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]map[string]any:
		items := make([]string, 0, len(t))
		for _, k := range sortedKeys(t) {
			items = append(items, pyString(k)+": "+pyLiteral(t[k]))
		}
		return "{" + strings.Join(items, ", ") + "}"
	case map[string]any:
		items := make([]string, 0, len(t))
		for _, k := range sortedKeys(t) {
			items = append(items, pyString(k)+": "+pyLiteral(t[k]))
		}
		return "{" + strings.Join(items, ", ") + "}"
	}
	return pyString(fmt.Sprint(v))
}

func pyTuple(items []string) string {
	switch len(items) {
	case 0:
		return "()"
	case 1:
		return "(" + items[0] + ",)"
	}
	return "(" + strings.Join(items, ", ") + ")"
}

// pyString quotes s the way Python's repr does for plain strings.
func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
