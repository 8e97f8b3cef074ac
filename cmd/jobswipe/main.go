package main

import "github.com/swipingforjobs/jobswipe/cmd/jobswipe/cmd"

func main() {
	cmd.Execute()
}
