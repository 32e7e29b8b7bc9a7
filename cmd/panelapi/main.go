package main

import "github.com/Infinity2209/user/cmd/panelapi/cmd"

func main() {
	cmd.Execute()
}
