package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dbehnke/rptd/internal/control"
)

// requestTimeout bounds one control-socket round trip; a stuck rptd
// should not hang the CLI indefinitely.
const requestTimeout = 5 * time.Second

func call(addr string, req control.Request) (control.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return control.Response{}, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(addr, "/")+"/control", bytes.NewReader(body))
	if err != nil {
		return control.Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return control.Response{}, fmt.Errorf("contact rptd at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	var out control.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return control.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// printResult renders a Response's output as indented JSON, or surfaces
// its error as a returned error (spec §6.4 "exit codes: 0 success, 1
// parse failure").
func printResult(resp control.Response) error {
	if !resp.OK {
		return fmt.Errorf("%s", resp.Error)
	}
	if resp.Output == nil {
		return nil
	}
	out, err := json.MarshalIndent(resp.Output, "", "  ")
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
