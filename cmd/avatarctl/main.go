package main

import (
	"os"

	"github.com/ironsheep/sprite-avatar-mcp/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
