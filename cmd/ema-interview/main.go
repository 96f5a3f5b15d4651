package main

import "github.com/koscakluka/ema-interview/internal/cli"

func main() {
	cli.Execute()
}
