package main

import "github.com/metalblueberry/fretscribe/cmd"

func main() {
	cmd.Execute()
}
