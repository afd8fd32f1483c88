package commands

import (
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/labref/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct {
	JSON bool `help:"Print as JSON"`
}

func (v *VersionCmd) Run(g *Global, _ *CLI) error {
	info := version.Get()
	if v.JSON {
		return json.NewEncoder(g.out()).Encode(info)
	}
	_, err := fmt.Fprintln(g.out(), info.String())
	return err
}
