package main

import "github.com/RyanBlaney/sonido-loader/cmd"

func main() {
	cmd.Execute()
}
