package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type check struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Authed   bool   `json:"authed"`
	Critical bool   `json:"critical"`
}

type checkFile struct {
	Checks []check `json:"checks"`
}

type result struct {
	Check    check
	Status   int
	Pass     bool
	Envelope bool
	Duration time.Duration
	Error    error
}

func main() {
	var (
		base       string
		token      string
		checksPath string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for authed checks")
	flag.StringVar(&checksPath, "checks", filepath.Join("scripts", "smoke", "checks.json"), "Path to JSON checks file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	checks, err := loadChecks(checksPath)
	if err != nil {
		log.Fatalf("failed to load checks: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		failures int
	)

	for _, c := range checks {
		if c.Authed && token == "" {
			continue
		}
		res := runCheck(client, base, token, c)
		if !res.Pass && c.Critical {
			failures++
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Critical failures: %d\n", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func loadChecks(path string) ([]check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf checkFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	if len(cf.Checks) == 0 {
		return nil, fmt.Errorf("no checks defined in %s", path)
	}
	return cf.Checks, nil
}

func runCheck(client *http.Client, base, token string, c check) result {
	res := result{Check: c}

	method := strings.ToUpper(strings.TrimSpace(c.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := c.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if c.Authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.Envelope = envelopeShaped(resp)
	expect := c.Expect
	if expect == 0 {
		expect = http.StatusOK
	}
	res.Pass = res.Status == expect

	return res
}

// envelopeShaped reports whether the body decodes as the common
// data/error/pagination envelope. Non-JSON bodies (metrics, files)
// are not failures, only unparseable JSON is.
func envelopeShaped(resp *http.Response) bool {
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return true
	}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return true
}

func printReport(results []result) {
	fmt.Println("Deployment Smoke Report")
	fmt.Println("=======================")
	for _, res := range results {
		status := "PASS"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.Pass {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Check.Method, res.Check.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (%s) | Envelope: %t | Critical: %t\n", res.Status, res.Duration, res.Envelope, res.Check.Critical)
	}
}
