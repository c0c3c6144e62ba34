package main

import (
	"github.com/SimonPop/lanterns/internal/scaffold"
)

// InitCmd scaffolds a new site.
type InitCmd struct {
	Dir      string `arg:"" optional:"" help:"Directory to create the site in." default:"."`
	Name     string `help:"Site name." default:"My Site"`
	Author   string `help:"Author name." default:"Your Name"`
	Timezone string `help:"IANA time zone of the site." default:"UTC"`
	Force    bool   `help:"Overwrite existing settings files."`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	return scaffold.CreateNewSite(i.Dir, scaffold.SiteOptions{
		SiteName: i.Name,
		Author:   i.Author,
		Timezone: i.Timezone,
		Force:    i.Force,
	})
}
