package main

import (
	"os"

	"k8s.io/klog"

	"github.com/bankimport-dev/bankimport/internal/commands"
)

func main() {
	defer klog.Flush()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
