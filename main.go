package main

import cmd "github.com/hanifm/pagedown/internal/cli"

func main() {
	cmd.Execute()
}
