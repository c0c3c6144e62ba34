// Package layout resolves the directories a settings file implies, relative
// to the project root, and inspects them without loading anything.
package layout

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SimonPop/lanterns/internal/config"
	"github.com/SimonPop/lanterns/internal/util"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is one problem with the project layout.
type Finding struct {
	Severity Severity
	Key      string
	Path     string
	Message  string
}

func (f Finding) String() string {
	if f.Path == "" {
		return fmt.Sprintf("%s: %s: %s", f.Severity, f.Key, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s (%s)", f.Severity, f.Key, f.Message, f.Path)
}

// Layout holds absolute paths derived from a SiteConfig. STATIC_PATHS and
// the keys of EXTRA_PATH_METADATA are relative to the content directory;
// every other path is relative to the project root.
type Layout struct {
	Root    string
	Content string
	Output  string
	Static  []string
	Plugins []string
	// Theme is empty when THEME names a built-in theme rather than a path.
	Theme string

	cfg config.SiteConfig
}

// Resolve joins every path-like setting of cfg onto root.
func Resolve(root string, cfg config.SiteConfig) (*Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %s: %w", root, err)
	}
	join := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(abs, filepath.FromSlash(p))
	}

	l := &Layout{
		Root:    abs,
		Content: join(cfg.ContentPath),
		Output:  join(cfg.OutputPath),
		cfg:     cfg,
	}
	// static paths are resolved inside the content directory
	for _, p := range cfg.StaticPaths {
		l.Static = append(l.Static, filepath.Join(l.Content, filepath.FromSlash(p)))
	}
	for _, p := range cfg.PluginPaths {
		l.Plugins = append(l.Plugins, join(p))
	}
	if isThemePath(abs, cfg.Theme) {
		l.Theme = join(cfg.Theme)
	}
	return l, nil
}

// isThemePath reports whether THEME refers to a directory rather than a
// theme bundled with the generator.
func isThemePath(root, theme string) bool {
	if strings.ContainsAny(theme, `/\`) || strings.HasPrefix(theme, ".") {
		return true
	}
	_, err := os.Stat(filepath.Join(root, theme))
	return err == nil
}

// Inspect checks the resolved paths and the plugin names against the
// filesystem. Plugins are only located, never loaded.
func (l *Layout) Inspect() []Finding {
	var findings []Finding
	add := func(sev Severity, key, path, format string, args ...any) {
		findings = append(findings, Finding{Severity: sev, Key: key, Path: l.rel(path), Message: fmt.Sprintf(format, args...)})
	}

	if !isDir(l.Content) {
		add(SeverityError, config.KeyPath, l.Content, "content directory does not exist")
	}
	if l.Output == l.Content || l.Output == l.Root {
		add(SeverityError, config.KeyOutputPath, l.Output, "output directory must differ from the content directory and project root")
	}
	if l.Theme != "" && !isDir(l.Theme) {
		add(SeverityError, config.KeyTheme, l.Theme, "theme directory does not exist")
	}
	for _, dir := range l.Static {
		if !isDir(dir) {
			add(SeverityWarning, config.KeyStaticPaths, dir, "static directory does not exist")
		}
	}
	for _, dir := range l.Plugins {
		if !isDir(dir) {
			add(SeverityWarning, config.KeyPluginPaths, dir, "plugin directory does not exist")
		}
	}
	for _, name := range l.cfg.Plugins {
		if _, ok := l.FindPlugin(name); !ok {
			add(SeverityWarning, config.KeyPlugins, "", "plugin %q not found in %s", name, strings.Join(l.cfg.PluginPaths, ", "))
		}
	}
	for _, src := range sortedKeys(l.cfg.ExtraPathMetadata) {
		if !l.underStatic(src) {
			add(SeverityWarning, config.KeyExtraPathMetadata, "", "%s is not inside any of STATIC_PATHS", src)
		}
	}
	return findings
}

// FindPlugin looks for name in the plugin paths, either as a package
// directory or as a single <name>.py module.
func (l *Layout) FindPlugin(name string) (string, bool) {
	candidates := []string{name}
	if alt := strings.ReplaceAll(name, "-", "_"); alt != name {
		candidates = append(candidates, alt)
	}
	for _, dir := range l.Plugins {
		for _, c := range candidates {
			if p := filepath.Join(dir, c); isDir(p) {
				return p, true
			}
			if p := filepath.Join(dir, c+".py"); isFile(p) {
				return p, true
			}
		}
	}
	return "", false
}

// StaticFile is one file the generator copies verbatim into the output.
type StaticFile struct {
	Source string // relative to the content directory, slash separated
	Dest   string // relative to the output directory, slash separated
	URL    string
}

// StaticPlan lists every file under STATIC_PATHS with its output location,
// applying the path remaps from EXTRA_PATH_METADATA.
func (l *Layout) StaticPlan() ([]StaticFile, error) {
	var plan []StaticFile
	seen := make(map[string]bool)
	for _, dir := range l.Static {
		if !isDir(dir) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			src, err := filepath.Rel(l.Content, path)
			if err != nil {
				return err
			}
			src = filepath.ToSlash(src)
			if seen[src] {
				return nil
			}
			seen[src] = true

			dest := src
			if meta, ok := l.cfg.ExtraPathMetadata[src]; ok {
				if remap, ok := meta["path"].(string); ok && remap != "" {
					dest = remap
				}
			}
			plan = append(plan, StaticFile{
				Source: src,
				Dest:   dest,
				URL:    util.URLFor(l.cfg, "index.html", dest),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk static path %s: %w", dir, err)
		}
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Source < plan[j].Source })
	return plan, nil
}

func (l *Layout) underStatic(src string) bool {
	for _, p := range l.cfg.StaticPaths {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if src == p || strings.HasPrefix(src, p+"/") {
			return true
		}
	}
	return false
}

func (l *Layout) rel(path string) string {
	if path == "" {
		return ""
	}
	r, err := filepath.Rel(l.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
