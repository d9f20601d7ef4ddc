package main

import (
	"os"

	"github.com/charliek/qrun/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
