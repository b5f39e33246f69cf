package main

import (
	"os"

	"github.com/joba14/lasm/tools/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
