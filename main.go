package main

import "face-morph-bot/cmd"

func main() {
	cmd.Execute()
}
