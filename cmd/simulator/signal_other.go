//go:build !unix

package main

import "os"

// notifyManualTrigger is a no-op where SIGUSR1 does not exist.
func notifyManualTrigger(chan<- os.Signal) {}
