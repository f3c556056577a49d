package main

import "bitrot-detector/cmd"

func main() {
	cmd.Execute()
}
