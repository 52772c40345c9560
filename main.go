package main

import "arcana-app/internal/app/cli"

func main() {
	cli.Execute()
}
