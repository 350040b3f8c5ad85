package main

import (
	cmd "github.com/rohmanhakim/salon-scraper/internal/cli"
)

func main() {
	cmd.Execute()
}
