/*
delta is the command line front end of the asset database: import files,
scan a project or keep it in sync while editing.
*/
package main

import (
	"github.com/spaghettifunk/delta/cmd"
)

func main() {
	cmd.Execute()
}
