//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the CLI and watches the project in the current directory.
func (Run) Watch() error {
	mg.Deps(Build.Cli)
	fmt.Println("Watching project...")
	if _, err := run("bin/delta", withArgs("watch"), withStream()); err != nil {
		return err
	}
	return nil
}

type Test mg.Namespace

// Runs the unit tests with the race detector.
func (Test) Unit() error {
	_, err := run("go", withArgs("test", "-race", "./..."), withStream())
	return err
}
