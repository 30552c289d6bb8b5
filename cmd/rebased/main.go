package main

import "github.com/LeJamon/gorebase/internal/cli"

func main() {
	cli.Execute()
}
