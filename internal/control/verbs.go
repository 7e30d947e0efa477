package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dbehnke/rptd/internal/dtmf"
)

// dispatchVerb implements the `rpt`/`tlb` verb table of spec §6.4 against
// s.dispatch. Unknown verbs and missing/malformed arguments are reported
// as errors rather than panicking, matching §7's "parse failure" exit
// path.
func (s *Server) dispatchVerb(req Request) (interface{}, error) {
	switch req.Verb {
	case "nodes":
		return s.dispatch.NodeNames(), nil

	case "show":
		return s.requireNode(req, func(node string) (interface{}, error) {
			snap, ok := s.dispatch.Snapshot(node)
			if !ok {
				return nil, fmt.Errorf("control: unknown node %q", node)
			}
			return snap, nil
		})

	case "stats":
		if req.Node == "" {
			return s.dispatch.AllStats(), nil
		}
		return s.requireNode(req, func(node string) (interface{}, error) {
			stats, ok := s.dispatch.Stats(node)
			if !ok {
				return nil, fmt.Errorf("control: unknown node %q", node)
			}
			return stats, nil
		})

	case "lstats":
		return s.requireNode(req, func(node string) (interface{}, error) {
			snap, ok := s.dispatch.Snapshot(node)
			if !ok {
				return nil, fmt.Errorf("control: unknown node %q", node)
			}
			return snap.Links, nil
		})

	case "fun", "cmd":
		return s.requireNode(req, func(node string) (interface{}, error) {
			if len(req.Args) == 0 {
				return nil, fmt.Errorf("control: %s requires a digit string argument", req.Verb)
			}
			res, err := s.dispatch.ExecuteDTMF(node, dtmf.SourceRPT, req.Args[0])
			if err != nil {
				return nil, err
			}
			return res.String(), nil
		})

	case "sendtext":
		return s.requireNode(req, func(node string) (interface{}, error) {
			if len(req.Args) == 0 {
				return nil, fmt.Errorf("control: sendtext requires a text argument")
			}
			line := strings.Join(req.Args, " ")
			if err := s.dispatch.SendText(node, line); err != nil {
				return nil, err
			}
			return "sent", nil
		})

	case "sendall":
		if len(req.Args) == 0 {
			return nil, fmt.Errorf("control: sendall requires a text argument")
		}
		line := strings.Join(req.Args, " ")
		if err := s.dispatch.SendAll(line); err != nil {
			return nil, err
		}
		return "sent", nil

	case "localplay":
		return s.requireNode(req, func(node string) (interface{}, error) {
			if len(req.Args) == 0 {
				return nil, fmt.Errorf("control: localplay requires a sound name argument")
			}
			if err := s.dispatch.LocalPlay(node, req.Args[0]); err != nil {
				return nil, err
			}
			return "queued", nil
		})

	case "reload":
		return s.requireNode(req, func(node string) (interface{}, error) {
			if err := s.dispatch.Reload(node); err != nil {
				return nil, err
			}
			return "reloaded", nil
		})

	case "restart":
		return s.requireNode(req, func(node string) (interface{}, error) {
			if err := s.dispatch.Restart(node); err != nil {
				return nil, err
			}
			return "restarted", nil
		})

	case "sysstate":
		return s.requireNode(req, func(node string) (interface{}, error) {
			if len(req.Args) == 0 {
				return nil, fmt.Errorf("control: sysstate requires an index argument")
			}
			idx, err := strconv.Atoi(req.Args[0])
			if err != nil {
				return nil, fmt.Errorf("control: sysstate index %q not numeric", req.Args[0])
			}
			if err := s.dispatch.Sysstate(node, idx); err != nil {
				return nil, err
			}
			return "selected", nil
		})

	case "xnode":
		if len(req.Args) == 0 {
			return nil, fmt.Errorf("control: xnode requires a node number argument")
		}
		entry, ok := s.dispatch.NodeGet(req.Args[0])
		if !ok {
			return nil, fmt.Errorf("control: no entry for node number %q", req.Args[0])
		}
		return entry, nil

	case "page":
		return s.requireNode(req, func(node string) (interface{}, error) {
			if len(req.Args) == 0 {
				return nil, fmt.Errorf("control: page requires a target argument")
			}
			if err := s.dispatch.Page(node, req.Args[0]); err != nil {
				return nil, err
			}
			return "paged", nil
		})

	case "nodedump":
		return s.dispatch.NodeDump(), nil

	case "nodeget":
		if len(req.Args) == 0 {
			return nil, fmt.Errorf("control: nodeget requires a node number argument")
		}
		entry, ok := s.dispatch.NodeGet(req.Args[0])
		if !ok {
			return nil, fmt.Errorf("control: no entry for node number %q", req.Args[0])
		}
		return entry, nil

	default:
		return nil, fmt.Errorf("control: unknown verb %q", req.Verb)
	}
}

func (s *Server) requireNode(req Request, fn func(node string) (interface{}, error)) (interface{}, error) {
	if req.Node == "" {
		return nil, fmt.Errorf("control: %s requires a node argument", req.Verb)
	}
	return fn(req.Node)
}
