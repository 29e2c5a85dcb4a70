package main

import (
	"os"

	"gomodules.xyz/logs"
	"k8s.io/klog/v2"
)

func main() {
	rootCmd := NewRootCmd()
	logs.Init(rootCmd, true)

	if err := rootCmd.Execute(); err != nil {
		klog.ErrorS(err, "Command failed")
		logs.FlushLogs()
		os.Exit(1)
	}
	logs.FlushLogs()
}
