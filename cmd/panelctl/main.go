package main

import "github.com/Infinity2209/user/cmd/panelctl/cmd"

func main() {
	cmd.Execute()
}
