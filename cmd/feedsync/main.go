package main

import "github.com/anonto42/nano-midea/feedsync/internal/cli"

func main() {
	cli.Execute()
}
