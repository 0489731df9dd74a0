package commands

import (
	"fmt"

	"git.home.luguber.info/inful/scholarsite/internal/config"
	"git.home.luguber.info/inful/scholarsite/internal/version"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	fmt.Printf("Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Println(version.String())
	return nil
}
