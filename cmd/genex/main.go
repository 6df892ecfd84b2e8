// Command genex is the entrypoint for the genex CLI.
package main

import "github.com/genexlabs/genex/cmd"

func main() {
	cmd.Execute()
}
