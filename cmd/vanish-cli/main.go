package main

import "github.com/vanishhq/vanish/cmd/vanish-cli/cmd"

func main() {
	cmd.Execute()
}
