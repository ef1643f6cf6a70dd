package main

import "github.com/kozaktomas/bird-tagger/cmd"

func main() {
	cmd.Execute()
}
