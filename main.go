package main

import "life-os/internal/cli"

func main() {
	cli.Execute()
}
