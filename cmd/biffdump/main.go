package main

import (
	"os"

	"github.com/danmuck/biffrec/internal/observability"
)

func main() {
	observability.InitLogger("biffdump")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
