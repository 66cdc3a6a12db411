package main

import (
	"os"

	"github.com/msto63/structlint/cmd/structlint/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
