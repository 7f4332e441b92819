package main

import "github.com/bz888/tsdr/cmd"

func main() {
	cmd.Execute()
}
