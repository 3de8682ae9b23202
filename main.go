package main

import (
	"os"

	"standup/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
