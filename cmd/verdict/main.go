// Package main provides the verdict CLI.
package main

import (
	"github.com/verdict-ml/verdict/internal/cli"
)

func main() {
	cli.Execute()
}
