package main

import (
	"context"

	"github.com/goliatone/go-policyforge/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}
