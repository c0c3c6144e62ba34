package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/SimonPop/lanterns/internal/logfields"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// settingName matches the names the generator accepts. Anything else in the
// file is ignored, the way lower-case names in a settings module are.
var settingName = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Loader reads site.yaml plus optional overlay files into a SiteConfig.
// The zero value expands ${VAR} references and loads no .env files.
type Loader struct {
	// EnvFiles are loaded before parsing. Missing files are skipped and
	// variables already set in the process environment win.
	EnvFiles []string
	// DisableEnvExpansion keeps ${VAR} references literal.
	DisableEnvExpansion bool
	Logger              *slog.Logger
}

// Load reads path and applies overlays in order with the default Loader.
func Load(path string, overlays ...string) (SiteConfig, error) {
	return (&Loader{}).Load(path, overlays...)
}

// Load reads path, merges each overlay over it key by key, applies the
// engine defaults to anything left undeclared and validates the result.
func (l *Loader) Load(path string, overlays ...string) (SiteConfig, error) {
	if err := l.loadEnv(); err != nil {
		return SiteConfig{}, err
	}
	sources := append([]string{path}, overlays...)
	merged := newDocument()
	for _, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("could not read config file at %s: %w", src, err)
		}
		doc, err := l.parse(src, data)
		if err != nil {
			return SiteConfig{}, err
		}
		merged.overlay(doc)
	}
	return l.build(merged, sources)
}

// LoadBytes parses a single in-memory settings document. name is only used
// in error messages.
func (l *Loader) LoadBytes(name string, data []byte) (SiteConfig, error) {
	doc, err := l.parse(name, data)
	if err != nil {
		return SiteConfig{}, err
	}
	return l.build(doc, []string{name})
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l *Loader) loadEnv() error {
	for _, f := range l.EnvFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			l.logger().Debug("env file not found, skipping", logfields.File(f))
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("could not load env file %s: %w", f, err)
		}
		l.logger().Debug("loaded environment", logfields.File(f))
	}
	return nil
}

type entry struct {
	value  *yaml.Node
	source string
}

// document is the top-level mapping of one or more settings files, kept in
// declaration order.
type document struct {
	order   []string
	entries map[string]entry
}

func newDocument() *document {
	return &document{entries: make(map[string]entry)}
}

func (d *document) set(key string, e entry) {
	if _, ok := d.entries[key]; !ok {
		d.order = append(d.order, key)
	}
	d.entries[key] = e
}

// overlay replaces or appends every key of o.
func (d *document) overlay(o *document) {
	for _, key := range o.order {
		d.set(key, o.entries[key])
	}
}

func (l *Loader) parse(name string, data []byte) (*document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", name, err)
	}
	if !l.DisableEnvExpansion {
		expandNode(&root)
	}

	doc := newDocument()
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}
	top := root.Content[0]
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		return doc, nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, &ConfigError{
			Sources: []string{name},
			Issues:  []Issue{{Line: top.Line, Message: "top level must be a mapping of setting names to values"}},
		}
	}

	var issues []Issue
	for i := 0; i+1 < len(top.Content); i += 2 {
		k, v := top.Content[i], top.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			issues = append(issues, Issue{Line: k.Line, Message: "setting names must be scalars"})
			continue
		}
		if !settingName.MatchString(k.Value) {
			l.logger().Warn("ignoring setting that is not upper case", slog.String("key", k.Value), logfields.File(name))
			continue
		}
		if _, dup := doc.entries[k.Value]; dup {
			issues = append(issues, Issue{Key: k.Value, Line: k.Line, Message: "declared more than once"})
			continue
		}
		doc.set(k.Value, entry{value: v, source: name})
	}
	if len(issues) > 0 {
		return nil, &ConfigError{Sources: []string{name}, Issues: issues}
	}
	return doc, nil
}

func (l *Loader) build(doc *document, sources []string) (SiteConfig, error) {
	cfg := Defaults()
	var issues []Issue
	failed := make(map[string]bool)
	for _, key := range doc.order {
		e := doc.entries[key]
		if err := bind(&cfg, key, e.value); err != nil {
			failed[key] = true
			issues = append(issues, Issue{Key: key, Source: e.source, Line: e.value.Line, Message: err.Error()})
		}
	}
	for _, issue := range validate(cfg) {
		if !failed[issue.Key] {
			if e, ok := doc.entries[issue.Key]; ok && issue.Line == 0 {
				issue.Source, issue.Line = e.source, e.value.Line
			}
			issues = append(issues, issue)
		}
	}
	if len(issues) > 0 {
		return SiteConfig{}, &ConfigError{Sources: sources, Issues: issues}
	}
	l.logger().Debug("settings loaded", logfields.Sources(sources), slog.Int("keys", len(doc.order)))
	return cfg, nil
}

// bind assigns the value of one declared setting onto cfg.
func bind(cfg *SiteConfig, key string, node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	switch key {
	case KeyAuthor:
		return bindString(node, &cfg.Author)
	case KeySiteName:
		return bindString(node, &cfg.SiteName)
	case KeySiteURL:
		return bindString(node, &cfg.SiteURL)
	case KeyPath:
		return bindString(node, &cfg.ContentPath)
	case KeyTimezone:
		return bindString(node, &cfg.Timezone)
	case KeyDefaultLang:
		return bindString(node, &cfg.DefaultLang)
	case KeyAuthorBio:
		return bindString(node, &cfg.AuthorBio)
	case KeyTheme:
		return bindString(node, &cfg.Theme)
	case KeyOutputPath:
		return bindString(node, &cfg.OutputPath)
	case string(FeedAllAtom), string(FeedCategoryAtom), string(FeedTranslationAtom),
		string(FeedAuthorAtom), string(FeedAuthorRSS):
		return bindFeed(node, cfg.Feeds, FeedKind(key))
	case KeyLinks:
		return bindLinks(node, &cfg.Links)
	case KeySocial:
		return bindLinks(node, &cfg.Social)
	case KeyDefaultPagination:
		if node.Kind != yaml.ScalarNode || node.Tag != "!!int" {
			return fmt.Errorf("must be a positive integer, got %s", describe(node))
		}
		return node.Decode(&cfg.DefaultPagination)
	case KeyRelativeURLs:
		return bindBool(node, &cfg.RelativeURLs)
	case KeyDeleteOutputDirectory:
		return bindBool(node, &cfg.DeleteOutputDirectory)
	case KeyStaticPaths:
		if err := bindStrings(node, &cfg.StaticPaths); err != nil {
			return err
		}
		cfg.StaticPaths = dedupe(cfg.StaticPaths)
		return nil
	case KeyPluginPaths:
		return bindStrings(node, &cfg.PluginPaths)
	case KeyPlugins:
		return bindStrings(node, &cfg.Plugins)
	case KeyExtraPathMetadata:
		if isNull(node) {
			cfg.ExtraPathMetadata = map[string]map[string]any{}
			return nil
		}
		if node.Kind != yaml.MappingNode {
			return fmt.Errorf("must be a mapping of path to metadata, got %s", describe(node))
		}
		meta := map[string]map[string]any{}
		if err := node.Decode(&meta); err != nil {
			return errors.New("every entry must map a path to a mapping of attributes")
		}
		for path, attrs := range meta {
			if hasNonFinite(attrs) {
				return fmt.Errorf("%s: numbers must be finite", path)
			}
		}
		cfg.ExtraPathMetadata = meta
		return nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return err
		}
		if hasNonFinite(v) {
			return errors.New("numbers must be finite, .inf and .nan have no JSON or Python literal")
		}
		cfg.Extra[key] = v
		return nil
	}
}

func bindString(node *yaml.Node, dst *string) error {
	if isNull(node) {
		*dst = ""
		return nil
	}
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("must be a string, got %s", describe(node))
	}
	*dst = node.Value
	return nil
}

func bindBool(node *yaml.Node, dst *bool) error {
	if node.Kind != yaml.ScalarNode || node.Tag != "!!bool" {
		return fmt.Errorf("must be true or false, got %s", describe(node))
	}
	return node.Decode(dst)
}

func bindFeed(node *yaml.Node, feeds FeedFlags, kind FeedKind) error {
	if isNull(node) {
		feeds[kind] = nil
		return nil
	}
	if node.Kind != yaml.ScalarNode || node.Tag != "!!str" {
		return fmt.Errorf("must be a path pattern or null, got %s", describe(node))
	}
	if node.Value == "" {
		feeds[kind] = nil
		return nil
	}
	p := node.Value
	feeds[kind] = &p
	return nil
}

func bindLinks(node *yaml.Node, dst *[]Link) error {
	if isNull(node) {
		*dst = []Link{}
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("must be a sequence of [label, url] pairs, got %s", describe(node))
	}
	links := make([]Link, 0, len(node.Content))
	if err := node.Decode(&links); err != nil {
		return err
	}
	*dst = links
	return nil
}

func bindStrings(node *yaml.Node, dst *[]string) error {
	if isNull(node) {
		*dst = []string{}
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("must be a sequence of strings, got %s", describe(node))
	}
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode || isNull(item) {
			return fmt.Errorf("entries must be strings, got %s", describe(item))
		}
		out = append(out, item.Value)
	}
	*dst = out
	return nil
}

// envRef matches the ${NAME} form only; a bare $ is always literal.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandNode substitutes ${NAME} references in the scalar values below n.
// Substitution happens after parsing, so a variable can only change the
// value it appears in. Mapping keys are left alone.
func expandNode(n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			expandNode(c)
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			expandNode(n.Content[i])
		}
	case yaml.ScalarNode:
		if !strings.Contains(n.Value, "${") {
			return
		}
		expanded := envRef.ReplaceAllStringFunc(n.Value, func(ref string) string {
			return os.Getenv(envRef.FindStringSubmatch(ref)[1])
		})
		if expanded == n.Value {
			return
		}
		n.Value = expanded
		if n.Style == 0 {
			n.Tag = plainTag(expanded)
		}
	}
}

// plainTag resolves the tag an unquoted scalar with value v would get, so
// ${PAGES} can stand for an integer. Anything that is not a single plain
// scalar stays a string.
func plainTag(v string) string {
	if strings.ContainsAny(v, "\n\r") {
		return "!!str"
	}
	var parsed yaml.Node
	if err := yaml.Unmarshal([]byte(v), &parsed); err != nil || len(parsed.Content) != 1 {
		return "!!str"
	}
	scalar := parsed.Content[0]
	if scalar.Kind != yaml.ScalarNode || scalar.Style != 0 || scalar.Value != v {
		return "!!str"
	}
	switch tag := scalar.ShortTag(); tag {
	case "!!int", "!!bool", "!!float", "!!null":
		return tag
	}
	return "!!str"
}

func hasNonFinite(v any) bool {
	switch t := v.(type) {
	case float64:
		return math.IsInf(t, 0) || math.IsNaN(t)
	case []any:
		for _, item := range t {
			if hasNonFinite(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range t {
			if hasNonFinite(item) {
				return true
			}
		}
	case map[any]any:
		for _, item := range t {
			if hasNonFinite(item) {
				return true
			}
		}
	}
	return false
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.AliasNode:
		return "an alias"
	}
	switch node.Tag {
	case "!!null":
		return "null"
	case "!!str":
		return fmt.Sprintf("string %q", node.Value)
	}
	return fmt.Sprintf("%s %s", strings.TrimPrefix(node.ShortTag(), "!!"), node.Value)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
