package main

import "github.com/virus-evolution/goclade/cmd"

func main() {
	cmd.Execute()
}
