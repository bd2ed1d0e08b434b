package main

import "github.com/officeteam/office-utilities/cmd"

func main() {
	cmd.Execute()
}
