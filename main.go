package main

import "github.com/mpapenbr/racecoach/cmd"

func main() {
	cmd.Execute()
}
