package main

import "github.com/earth-sentinel/sentinel-dash/cmd/sentinel-dash/cmd"

func main() {
	cmd.Execute()
}
