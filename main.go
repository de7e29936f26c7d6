package main

import (
	"AriaVault/cmd"
)

func main() {
	cmd.Execute()
}
