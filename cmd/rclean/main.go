// Package main provides the entry point for the rclean CLI.
package main

import (
	"os"
)

func main() {
	os.Exit(Execute())
}
