package main

import "readlist/cmd/cli/commands"

func main() {
	commands.Execute()
}
