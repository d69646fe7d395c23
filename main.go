package main

import "github.com/endorses/routefilter/cmd"

func main() {
	cmd.Execute()
}
