package main

import "github.com/emrgen/linktrace/cmd"

func main() {
	cmd.Execute()
}
