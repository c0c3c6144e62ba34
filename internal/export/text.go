package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/SimonPop/lanterns/internal/config"
)

// Row is one setting rendered for people rather than programs.
type Row struct {
	Key   string
	Lines []string
}

// Rows renders every setting of cfg, in setting order. Each row has at
// least one line.
func Rows(cfg config.SiteConfig) []Row {
	settings := cfg.Settings()
	rows := make([]Row, len(settings))
	for i, s := range settings {
		rows[i] = Row{Key: s.Key, Lines: textValue(s.Value)}
	}
	return rows
}

func encodeText(w io.Writer, cfg config.SiteConfig) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range Rows(cfg) {
		fmt.Fprintf(tw, "%s\t%s\n", row.Key, row.Lines[0])
		for _, line := range row.Lines[1:] {
			fmt.Fprintf(tw, "\t%s\n", line)
		}
	}
	return tw.Flush()
}

func textValue(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{"(disabled)"}
	case string:
		if t == "" {
			return []string{`""`}
		}
		return []string{t}
	case []config.Link:
		if len(t) == 0 {
			return []string{"(none)"}
		}
		out := make([]string, len(t))
		for i, l := range t {
			out[i] = fmt.Sprintf("%d. %s -> %s", i+1, l.Label, l.URL)
		}
		return out
	case []string:
		if len(t) == 0 {
			return []string{"(none)"}
		}
		return []string{strings.Join(t, ", ")}
	case map[string]map[string]any:
		if len(t) == 0 {
			return []string{"(none)"}
		}
		out := make([]string, 0, len(t))
		for _, k := range sortedKeys(t) {
			out = append(out, k+": "+pyLiteral(t[k]))
		}
		return out
	}
	return []string{pyLiteral(v)}
}
