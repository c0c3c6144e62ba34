package main

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/SimonPop/lanterns/internal/config"
	"github.com/SimonPop/lanterns/internal/logfields"
	"github.com/alecthomas/kong"
)

// Global is shared by every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

// CLI is the root command and its global flags.
type CLI struct {
	Config      string           `short:"c" help:"Settings file." default:"site.yaml"`
	Overlay     []string         `help:"Settings file merged over --config, key by key. Repeatable." sep:"none"`
	EnvFile     []string         `name:"env-file" help:"Load variables from a .env file before reading settings. Repeatable." sep:"none"`
	NoEnvExpand bool             `name:"no-env-expand" help:"Keep environment variable references in settings files literal."`
	Verbose     bool             `short:"v" help:"Enable verbose logging."`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit."`

	Show   ShowCmd   `cmd:"" help:"Print the loaded settings."`
	Check  CheckCmd  `cmd:"" help:"Validate the settings and the project layout they describe."`
	Export ExportCmd `cmd:"" help:"Write the loaded settings to a file, pelicanconf.py by default."`
	Init   InitCmd   `cmd:"" help:"Create a new site with a settings file and its directories."`
	New    NewCmd    `cmd:"" help:"Create a content file from the default archetype."`
	Serve  ServeCmd  `cmd:"" help:"Serve the generated site with live reload and a settings preview."`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Err, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

func (c *CLI) loader(g *Global) *config.Loader {
	files := c.EnvFile
	if len(files) == 0 {
		files = []string{filepath.Join(c.root(), ".env")}
	}
	return &config.Loader{
		EnvFiles:            files,
		DisableEnvExpansion: c.NoEnvExpand,
		Logger:              g.Logger,
	}
}

// root is the project root: the directory holding the settings file.
func (c *CLI) root() string {
	return filepath.Dir(c.Config)
}

func (c *CLI) load(g *Global) (config.SiteConfig, error) {
	cfg, err := c.loader(g).Load(c.Config, c.Overlay...)
	if err != nil {
		return config.SiteConfig{}, err
	}
	g.Logger.Debug("Settings loaded",
		logfields.Sources(append([]string{c.Config}, c.Overlay...)),
		logfields.Fingerprint(cfg.Fingerprint()))
	return cfg, nil
}
