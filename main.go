package main

import "github.com/melkeydev/formengine/cmd"

func main() {
	cmd.Execute()
}
