package main

import (
	"github.com/SimonPop/lanterns/internal/export"
)

// ShowCmd prints the merged settings.
type ShowCmd struct {
	Format string `short:"f" help:"Output format (${enum})." enum:"text,yaml,json,pelican" default:"text"`
}

func (s *ShowCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	f, err := export.ParseFormat(s.Format)
	if err != nil {
		return err
	}
	return export.Encode(g.Out, cfg, f)
}
