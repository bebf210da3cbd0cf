// Command vkrestrace replays canned vkres workloads against a backend and
// prints what the helpers recorded and recycled.
package main

import (
	"os"

	"github.com/gogpu/vkres/cmd/vkrestrace/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
