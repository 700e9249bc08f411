package main

import "github.com/impala-radio/impala/cmd"

func main() {
	cmd.Execute()
}
