package main

import "github.com/pfrederiksen/sports-calendar/internal/cli"

func main() {
	cli.Execute()
}
