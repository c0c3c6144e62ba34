package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SimonPop/lanterns/internal/export"
	"github.com/SimonPop/lanterns/internal/logfields"
)

// ExportCmd writes the merged settings for other tools.
type ExportCmd struct {
	Format string `short:"f" help:"Output format (${enum})." enum:"pelican,yaml,json,text" default:"pelican"`
	Output string `short:"o" help:"Destination file, '-' for stdout. Defaults to a file next to the settings named after the format."`
}

func (e *ExportCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	f, err := export.ParseFormat(e.Format)
	if err != nil {
		return err
	}
	if e.Output == "-" {
		return export.Encode(g.Out, cfg, f)
	}

	dest := e.Output
	if dest == "" {
		dest = filepath.Join(root.root(), export.DefaultFilename(f))
	}
	if same(dest, root.Config) {
		return fmt.Errorf("refusing to overwrite the settings file %s", dest)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if err := export.Encode(out, cfg, f); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	g.Logger.Debug("Exported settings", logfields.File(dest))
	fmt.Fprintf(g.Out, "Wrote %s\n", dest)
	return nil
}

func same(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
