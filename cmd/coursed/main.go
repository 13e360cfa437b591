package main

import (
	"fmt"
	"os"

	"github.com/coursedl/coursedl/cmd"
)

func main() {
	if err := cmd.Execute([]string{os.Args[0], "daemon"}); err != nil {
		fmt.Println("coursed:", err.Error())
		os.Exit(1)
	}
}
