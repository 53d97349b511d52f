package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("starting")
	if len(os.Args) > 3 {
		os.Exit(2) // want `os.Exit call is forbidden in main function: os.Exit\(2\)`
	}
	defer os.Exit(0) // want `os.Exit call is forbidden in main function`
	run()
}

func run() {
	os.Exit(1)
}

type cmd struct{}

func (cmd) main() {
	os.Exit(3)
}
