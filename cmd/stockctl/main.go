package main

import (
	"os"

	"github.com/MrSnakeDoc/stockfront/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
