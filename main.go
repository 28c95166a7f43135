package main

import (
	"github.com/rubiojr/pl2py/cmd"
)

var version = "v0.3.1"

func main() {
	cmd.Execute(version)
}
