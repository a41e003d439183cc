package main

import (
	"flag"

	"github.com/kicklens/scraper/pipeline"
)

func main() {
	flag.Parse()

	pipeline.Run(flag.Args())
}
