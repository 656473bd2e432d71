/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/palmtree/cmd/palmbench/cmd"
)

func main() {
	cmd.Execute()
}
