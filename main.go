package main

import "github.com/mzeman/smartthings-windfree/cmd"

func main() {
	cmd.Execute()
}
