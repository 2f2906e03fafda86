package main

import (
	"github.com/pacslab/faas-sim/cmd"
)

func main() {
	cmd.Execute()
}
