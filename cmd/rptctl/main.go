// Command rptctl is the CLI client for the `rpt`/`tlb` control-socket
// surface of spec §6.4. It does no repeater logic itself; every verb is a
// single JSON-over-HTTP round trip to a running rptd, except `show
// --watch`, which opens the live event-stream websocket instead.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:9000", "rptd control socket address")
	watch := flag.Bool("watch", false, "for `rpt show`, stream live events instead of a single snapshot")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}

	family, verb, rest := args[0], args[1], args[2:]

	var err error
	switch family {
	case "rpt":
		err = runRpt(*addr, verb, rest, *watch)
	case "tlb":
		err = runTlb(*addr, verb, rest)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "rptctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  rptctl rpt show <node>
  rptctl --watch rpt show [node]
  rptctl rpt stats [node]
  rptctl rpt lstats <node>
  rptctl rpt nodes
  rptctl rpt fun <node> <digits>
  rptctl rpt cmd <node> <digits>
  rptctl rpt sendtext <node> <text...>
  rptctl rpt sendall <text...>
  rptctl rpt localplay <node> <sound>
  rptctl rpt reload <node>
  rptctl rpt restart <node>
  rptctl rpt sysstate <node> <index>
  rptctl rpt xnode <nodenum>
  rptctl rpt page <node> <target>
  rptctl tlb nodedump
  rptctl tlb nodeget <num>`)
}
