package main

import "github.com/josephlewis42/tinysh/cmd"

func main() {
	cmd.Execute()
}
