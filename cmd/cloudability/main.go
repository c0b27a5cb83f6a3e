package main

import (
	"context"
	"os"

	"github.com/zgpcy/cloudability-exporter/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
