package main

import (
	"fmt"
	"os"

	"github.com/coursedl/coursedl/cmd"
)

func main() {
	if err := cmd.Execute(os.Args); err != nil {
		fmt.Printf("coursedl: %s\n", err.Error())
		os.Exit(1)
	}
}
