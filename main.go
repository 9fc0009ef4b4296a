package main

import "github.com/okian/presence/cmd"

func main() {
	cmd.Execute()
}
