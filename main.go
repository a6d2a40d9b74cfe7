package main

import "bitebuddy-backend/cmd"

func main() {
	cmd.Run()
}
