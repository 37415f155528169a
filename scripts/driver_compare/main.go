// Command driver_compare hits the same read endpoints on two running API
// instances, typically one on STORE_DRIVER=postgres and one on
// STORE_DRIVER=memory, and reports status and body differences. Useful to
// verify the in-memory store keeps behaving like the Postgres repositories.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target          target
	PrimaryStatus   int
	SecondaryStatus int
	StatusMatch     bool
	BodyMatch       bool
	Err             error
}

func main() {
	var (
		primaryBase   string
		secondaryBase string
		token         string
		targetsPath   string
		timeout       time.Duration
	)

	flag.StringVar(&primaryBase, "primary", "http://localhost:8080", "primary API base URL (postgres driver)")
	flag.StringVar(&secondaryBase, "secondary", "http://localhost:8081", "secondary API base URL (memory driver)")
	flag.StringVar(&token, "token", "", "bearer token used against both instances")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "driver_compare", "targets.json"), "path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var breaking, optional int

	for _, tgt := range targets {
		res := compare(client, primaryBase, secondaryBase, token, tgt)
		printResult(res)
		if res.Err != nil || !res.StatusMatch || !res.BodyMatch {
			if tgt.Critical {
				breaking++
			} else {
				optional++
			}
		}
	}

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compare(client *http.Client, primaryBase, secondaryBase, token string, tgt target) result {
	res := result{Target: tgt}

	primaryStatus, primaryBody, err := fetch(client, primaryBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("primary request failed: %w", err)
		return res
	}
	secondaryStatus, secondaryBody, err := fetch(client, secondaryBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("secondary request failed: %w", err)
		return res
	}

	res.PrimaryStatus = primaryStatus
	res.SecondaryStatus = secondaryStatus
	res.StatusMatch = primaryStatus == secondaryStatus
	res.BodyMatch = bodiesEqual(primaryBody, secondaryBody)
	return res
}

func fetch(client *http.Client, base, token string, tgt target) (int, []byte, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
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
	return reflect.DeepEqual(aj, bj)
}

func printResult(res result) {
	label := "ok"
	switch {
	case res.Err != nil:
		label = "error: " + res.Err.Error()
	case !res.StatusMatch:
		label = fmt.Sprintf("status mismatch (%d vs %d)", res.PrimaryStatus, res.SecondaryStatus)
	case !res.BodyMatch:
		label = "body mismatch"
	}
	fmt.Printf("%-6s %-60s %s\n", res.Target.Method, res.Target.Path, label)
}
