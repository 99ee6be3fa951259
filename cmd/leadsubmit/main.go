package main

import (
	"os"

	"github.com/joho/godotenv"
)

var exit = os.Exit

func main() {
	_ = godotenv.Load()

	if err := NewRootCmd().Execute(); err != nil {
		exit(1)
	}
}
