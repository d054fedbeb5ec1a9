package main

import (
	"github.com/citsci/scirec/cmd"
)

func main() {
	cmd.Execute()
}
