package config

import (
	"fmt"
	"sort"
	"strings"
)

// Issue is a single problem found with one setting.
type Issue struct {
	Key     string
	Source  string
	Line    int
	Message string
}

func (i Issue) String() string {
	var b strings.Builder
	if i.Key != "" {
		b.WriteString(i.Key)
		b.WriteString(": ")
	}
	switch {
	case i.Source != "" && i.Line > 0:
		fmt.Fprintf(&b, "%s:%d: ", i.Source, i.Line)
	case i.Line > 0:
		fmt.Fprintf(&b, "line %d: ", i.Line)
	}
	b.WriteString(i.Message)
	return b.String()
}

// ConfigError reports every malformed setting found while loading. Callers
// match it with errors.As.
type ConfigError struct {
	Sources []string
	Issues  []Issue
}

func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	src := strings.Join(e.Sources, ", ")
	if src == "" {
		src = "settings"
	}
	return fmt.Sprintf("invalid configuration in %s: %s", src, strings.Join(parts, "; "))
}

// Has reports whether any issue concerns key.
func (e *ConfigError) Has(key string) bool {
	for _, issue := range e.Issues {
		if issue.Key == key {
			return true
		}
	}
	return false
}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Key != issues[j].Key {
			return issues[i].Key < issues[j].Key
		}
		return issues[i].Message < issues[j].Message
	})
}
