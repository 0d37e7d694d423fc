// Package main provides the basegrid CLI, a terminal client for the base
// service: schema browsing, record CRUD, and live-updating listings.
package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"
)

func main() {
	err := rootCmd.Execute()
	glog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, "basegrid:", err)
		os.Exit(exitCode(err))
	}
}
