package main

import "github.com/filevault/filevault/cmd"

func main() {
	cmd.Execute()
}
