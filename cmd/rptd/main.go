// Command rptd is the repeater controller and linking engine daemon: it
// loads a configuration file, starts one Node per configured section, and
// bridges each Node to its physical radio transport and its linking
// transports, then serves the control socket of spec §6.4.
//
// Grounded on cmd/ysf2dmr/main_goroutine.go's GoroutineGateway: flag-based
// config path, context.WithCancel lifecycle, and a signal-driven Run/Stop
// pair, generalized from one fixed DMR/YSF client pair to an arbitrary set
// of Nodes and their transports.
package main

import (
	"flag"
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "rptd.conf", "path to the rptd configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("rptd " + version)
		return
	}

	d, err := NewDaemon(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rptd: %v\n", err)
		os.Exit(1)
	}

	if err := d.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "rptd: %v\n", err)
		os.Exit(1)
	}
}
