// Command luigisbox synchronises catalog content with Luigi's Box from the
// command line.
package main

import (
	"os"

	"github.com/answear/luigisbox_sdk_go/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
