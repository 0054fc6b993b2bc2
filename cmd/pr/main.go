package main

import (
	"prflow/internal/cli"
)

func main() {
	cli.Execute()
}
