// Command skillsync signs in to a SkillSync API and reports what the
// signed-in account may open.
package main

import (
	"fmt"
	"os"

	"github.com/MrEthical07/skillsync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		}
		os.Exit(1)
	}
}
