package main

import (
	"log"

	"github.com/espressobar/brewsched/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
