package main

import "github.com/aurastream/genmusic/internal/cli"

func main() {
	cli.Execute()
}
