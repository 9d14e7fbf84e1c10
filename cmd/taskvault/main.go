package main

import "github.com/taskvault/taskvault/cmd/taskvault/cmd"

func main() {
	cmd.Execute()
}
