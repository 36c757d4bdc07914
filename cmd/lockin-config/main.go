// Command lockin-config prints the lock-in amplifier's current front-panel
// configuration, decoding each numeric setting code into its meaning.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/lockin.report/internal/codes"
	"github.com/banshee-data/lockin.report/internal/serialmux"
)

func main() {
	portPath := flag.String("port", "/dev/ttyUSB0", "Serial port of the lock-in amplifier")
	baud := flag.Int("baud", 19200, "Serial baud rate")
	flag.Parse()

	mux, err := serialmux.Open(*portPath, serialmux.PortOptions{BaudRate: *baud})
	if err != nil {
		log.Fatalf("opening serial port %s: %v", *portPath, err)
	}
	defer mux.Close()

	values, err := codes.Snapshot(mux)
	if err != nil {
		log.Fatalf("reading configuration: %v", err)
	}

	for _, v := range values {
		fmt.Printf("%-20s %30s\n", v.Name, v.Text)
	}
}
