package main

import "fund_tracer/internal/pkg/logger"

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Command failed", "error", err)
	}
}
