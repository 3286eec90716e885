package main

import "github.com/localboost/localboost/internal/cli"

func main() {
	cli.Execute()
}
