package main

import "capriccio/internal/cmd"

func main() {
	cmd.Execute()
}
