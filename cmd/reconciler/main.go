// Command reconciler runs the month-end general ledger versus subledger
// bonus reconciliation.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
