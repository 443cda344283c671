package main

import "josephlewis.net/vsh/cmd"

func main() {
	cmd.Execute()
}
