// Command asil runs the OyGul ERP assistant as a console REPL or a Telegram
// bot.
//
// Usage:
//
//	asil console [--lang uz|ru|en] [--login L --password P]
//	asil telegram
//
// Configuration is read from the environment and an optional .env file.
package main

import (
	"fmt"
	"os"

	"github.com/oygul/asil/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
