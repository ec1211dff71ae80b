package main

import "github.com/tibbisekreter/cli/cmd"

func main() {
	cmd.Execute()
}
