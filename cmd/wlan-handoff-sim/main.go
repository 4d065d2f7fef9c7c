// Command wlan-handoff-sim runs discrete-event simulations of stations
// roaming between WLAN access points and reports UDP throughput.
package main

import "os"

func main() {
	os.Exit(run())
}
