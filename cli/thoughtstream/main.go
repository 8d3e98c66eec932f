package main

import (
	"os"

	thoughtstreamcmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream"
)

func main() {
	cmd := thoughtstreamcmder.NewThoughtstreamCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
