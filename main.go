package main

import "github.com/bz888/arena/cmd"

func main() {
	cmd.Execute()
}
