package main

import "github.com/teampro-ai/teampro/tools/teampro/cmd"

func main() {
	cmd.Execute()
}
