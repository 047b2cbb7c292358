package main

import "stockmon/internal/cli"

func main() {
	cli.Execute()
}
