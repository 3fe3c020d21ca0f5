package main

import "github.com/forPelevin/lyricsmith/internal/cli"

func main() {
	cli.Main()
}
