package main

import "github.com/phambaophuc/image-normalizer/internal/cli"

func main() {
	cli.Execute()
}
