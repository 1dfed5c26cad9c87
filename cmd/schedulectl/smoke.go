package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type probe struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Status   int    `json:"status"`
	Critical bool   `json:"critical"`
}

type probeFile struct {
	Probes []probe `json:"probes"`
}

type probeResult struct {
	Probe          probe
	Status         int
	BaselineStatus int
	BodyMatch      bool
	Duration       time.Duration
	Err            error
}

func (r probeResult) failed(compare bool) bool {
	if r.Err != nil {
		return true
	}
	if r.Status != r.Probe.Status {
		return true
	}
	return compare && (r.Status != r.BaselineStatus || !r.BodyMatch)
}

// volatileMeta holds envelope meta keys that differ on every request.
var volatileMeta = []string{"processing_time_ms", "cache_hit"}

func runSmoke(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("smoke", flag.ExitOnError)
	base := fs.String("base", "http://localhost:8080", "API base URL")
	baseline := fs.String("baseline", "", "optional second deployment whose responses must match")
	probesPath := fs.String("probes", "configs/smoke.json", "JSON probe list")
	timeout := fs.Duration("timeout", 5*time.Second, "HTTP client timeout")
	_ = fs.Parse(args)

	probes, err := loadProbes(*probesPath)
	if err != nil {
		return err
	}
	results := runProbes(ctx, &http.Client{Timeout: *timeout}, *base, *baseline, probes)

	breaking := printProbeReport(out, results, *baseline != "")
	if breaking > 0 {
		return fmt.Errorf("%d critical probe(s) failed", breaking)
	}
	return nil
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file probeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(file.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	for i := range file.Probes {
		if file.Probes[i].Status == 0 {
			file.Probes[i].Status = http.StatusOK
		}
	}
	return file.Probes, nil
}

func runProbes(ctx context.Context, client *http.Client, base, baseline string, probes []probe) []probeResult {
	results := make([]probeResult, 0, len(probes))
	for _, p := range probes {
		res := probeResult{Probe: p}
		status, body, dur, err := fetch(ctx, client, base, p)
		res.Status, res.Duration = status, dur
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		if baseline != "" {
			baseStatus, baseBody, _, err := fetch(ctx, client, baseline, p)
			if err != nil {
				res.Err = fmt.Errorf("baseline: %w", err)
			} else {
				res.BaselineStatus = baseStatus
				res.BodyMatch = bodiesEqual(body, baseBody)
			}
		}
		results = append(results, res)
	}
	return results
}

func fetch(ctx context.Context, client *http.Client, base string, p probe) (int, []byte, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, time.Since(start), fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	stripVolatile(aj)
	stripVolatile(bj)
	return reflect.DeepEqual(aj, bj)
}

func stripVolatile(v interface{}) {
	envelope, ok := v.(map[string]interface{})
	if !ok {
		return
	}
	meta, ok := envelope["meta"].(map[string]interface{})
	if !ok {
		return
	}
	for _, key := range volatileMeta {
		delete(meta, key)
	}
	if len(meta) == 0 {
		delete(envelope, "meta")
	}
}

func printProbeReport(out io.Writer, results []probeResult, compare bool) int {
	breaking := 0
	for _, res := range results {
		label := "OK"
		if res.failed(compare) {
			label = "FAIL"
			if res.Probe.Critical {
				breaking++
			}
		}
		fmt.Fprintf(out, "[%s] %s %s -> %d (want %d, %s)\n", label, res.Probe.Method, res.Probe.Path, res.Status, res.Probe.Status, res.Duration.Round(time.Millisecond))
		if res.Err != nil {
			fmt.Fprintf(out, "  error: %v\n", res.Err)
		} else if compare {
			fmt.Fprintf(out, "  baseline status: %d | body match: %t\n", res.BaselineStatus, res.BodyMatch)
		}
	}
	fmt.Fprintf(out, "%d probe(s), %d critical failure(s)\n", len(results), breaking)
	return breaking
}
