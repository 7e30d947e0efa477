package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"github.com/dbehnke/rptd/internal/control"
)

func runRpt(addr, verb string, args []string, watch bool) error {
	switch verb {
	case "show":
		if watch {
			var node string
			if len(args) > 0 {
				node = args[0]
			}
			return watchEvents(addr, node)
		}
		return simpleNode(addr, "show", args)

	case "stats":
		node := ""
		if len(args) > 0 {
			node = args[0]
		}
		resp, err := call(addr, control.Request{Verb: "stats", Node: node})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "lstats", "reload", "restart":
		return simpleNode(addr, verb, args)

	case "nodes":
		resp, err := call(addr, control.Request{Verb: "nodes"})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "fun", "cmd":
		if len(args) < 2 {
			return fmt.Errorf("%s requires <node> <digits>", verb)
		}
		resp, err := call(addr, control.Request{Verb: verb, Node: args[0], Args: args[1:2]})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "sendtext":
		if len(args) < 2 {
			return fmt.Errorf("sendtext requires <node> <text...>")
		}
		resp, err := call(addr, control.Request{Verb: "sendtext", Node: args[0], Args: args[1:]})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "sendall":
		if len(args) < 1 {
			return fmt.Errorf("sendall requires <text...>")
		}
		resp, err := call(addr, control.Request{Verb: "sendall", Args: args})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "localplay":
		if len(args) < 2 {
			return fmt.Errorf("localplay requires <node> <sound>")
		}
		resp, err := call(addr, control.Request{Verb: "localplay", Node: args[0], Args: args[1:2]})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "sysstate":
		if len(args) < 2 {
			return fmt.Errorf("sysstate requires <node> <index>")
		}
		if _, err := strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("sysstate index must be numeric: %w", err)
		}
		resp, err := call(addr, control.Request{Verb: "sysstate", Node: args[0], Args: args[1:2]})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "xnode":
		if len(args) < 1 {
			return fmt.Errorf("xnode requires <nodenum>")
		}
		resp, err := call(addr, control.Request{Verb: "xnode", Args: args[:1]})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "page":
		if len(args) < 2 {
			return fmt.Errorf("page requires <node> <target>")
		}
		resp, err := call(addr, control.Request{Verb: "page", Node: args[0], Args: args[1:2]})
		if err != nil {
			return err
		}
		return printResult(resp)

	default:
		return fmt.Errorf("unknown rpt verb %q", verb)
	}
}

func runTlb(addr, verb string, args []string) error {
	switch verb {
	case "nodedump":
		resp, err := call(addr, control.Request{Verb: "nodedump"})
		if err != nil {
			return err
		}
		return printResult(resp)

	case "nodeget":
		if len(args) < 1 {
			return fmt.Errorf("nodeget requires <num>")
		}
		resp, err := call(addr, control.Request{Verb: "nodeget", Args: args[:1]})
		if err != nil {
			return err
		}
		return printResult(resp)

	default:
		return fmt.Errorf("unknown tlb verb %q", verb)
	}
}

// simpleNode handles the shape shared by show/lstats/reload/restart: one
// required node argument, no other payload.
func simpleNode(addr, verb string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%s requires <node>", verb)
	}
	resp, err := call(addr, control.Request{Verb: verb, Node: args[0]})
	if err != nil {
		return err
	}
	return printResult(resp)
}

// watchEvents opens the live event-stream subscription and prints each
// Event as it arrives, filtering to node when non-empty, until the
// connection closes or the process is interrupted.
func watchEvents(addr, node string) error {
	wsURL, err := toWebsocketURL(addr)
	if err != nil {
		return err
	}

	ctx := context.Background()
	c, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect event stream: %w", err)
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return fmt.Errorf("event stream closed: %w", err)
		}
		var ev control.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if node != "" && ev.Node != node {
			continue
		}
		line, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Println(string(line))
	}
}

func toWebsocketURL(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse address: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/events"
	return u.String(), nil
}
