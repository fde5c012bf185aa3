package main

import "github.com/artemshloyda/photoresizer/internal/cli"

func main() {
	cli.Execute()
}
