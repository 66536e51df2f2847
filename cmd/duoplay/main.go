package main

import "github.com/mcoot/duoplay/internal/cli"

func main() {
	cli.Execute()
}
