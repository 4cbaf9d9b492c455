// Package main is the entry point for the budget-report CLI.
package main

import (
	"os"

	"budgetreport/cmd/budget-report/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
