package main

import (
	"os"

	"github.com/ashavijit/swiftbench/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
