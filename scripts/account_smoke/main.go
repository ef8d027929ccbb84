package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// step is one request of the smoke flow. Body may reference values captured
// by earlier steps as {{name}}.
type step struct {
	Name     string
	Method   string
	Path     string
	Body     map[string]string
	Bearer   string
	Expect   int
	Capture  map[string]string
	Critical bool
}

type result struct {
	Step     step
	Status   int
	Duration time.Duration
	Error    error
}

func main() {
	var (
		base    string
		prefix  string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "Account API base URL")
	flag.StringVar(&prefix, "prefix", "/api", "API prefix")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	user := fmt.Sprintf("smoke%d", time.Now().UnixNano())
	client := &http.Client{Timeout: timeout}
	vars := map[string]string{}

	var (
		results  []result
		breaking int
	)
	for _, s := range flow(user) {
		res := run(client, strings.TrimRight(base, "/")+prefix, s, vars)
		if res.Error != nil || res.Status != s.Expect {
			if s.Critical {
				breaking++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Failed critical steps: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func flow(user string) []step {
	creds := map[string]string{"username": user, "password": "Pa$$w0rd"}
	return []step{
		{Name: "register", Method: http.MethodPost, Path: "/account/register", Body: map[string]string{"username": user, "email": user + "@example.com", "password": "Pa$$w0rd"}, Expect: http.StatusCreated, Critical: true},
		{Name: "register duplicate", Method: http.MethodPost, Path: "/account/register", Body: map[string]string{"username": user, "email": user + "@example.com", "password": "Pa$$w0rd"}, Expect: http.StatusBadRequest, Critical: true},
		{Name: "login wrong password", Method: http.MethodPost, Path: "/account/login", Body: map[string]string{"username": user, "password": "nope"}, Expect: http.StatusUnauthorized, Critical: true},
		{Name: "login", Method: http.MethodPost, Path: "/account/login", Body: creds, Expect: http.StatusOK, Capture: map[string]string{"token": "token", "refresh": "refreshToken"}, Critical: true},
		{Name: "me", Method: http.MethodGet, Path: "/account/me", Bearer: "{{token}}", Expect: http.StatusOK},
		{Name: "refresh", Method: http.MethodPost, Path: "/account/refresh", Body: map[string]string{"token": "{{token}}", "refreshToken": "{{refresh}}"}, Expect: http.StatusOK, Capture: map[string]string{"token2": "token", "refresh2": "refreshToken"}, Critical: true},
		{Name: "refresh replay", Method: http.MethodPost, Path: "/account/refresh", Body: map[string]string{"token": "{{token}}", "refreshToken": "{{refresh}}"}, Expect: http.StatusUnauthorized, Critical: true},
		{Name: "refresh rotated", Method: http.MethodPost, Path: "/account/refresh", Body: map[string]string{"token": "{{token2}}", "refreshToken": "{{refresh2}}"}, Expect: http.StatusOK, Critical: true},
		{Name: "client routes", Method: http.MethodGet, Path: "/client/routes", Expect: http.StatusOK},
	}
}

func run(client *http.Client, base string, s step, vars map[string]string) result {
	res := result{Step: s}
	if client == nil {
		res.Error = errors.New("nil client")
		return res
	}

	var body io.Reader
	if s.Body != nil {
		payload := make(map[string]string, len(s.Body))
		for k, v := range s.Body {
			payload[k] = expand(v, vars)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			res.Error = err
			return res
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(s.Method, base+s.Path, body)
	if err != nil {
		res.Error = err
		return res
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+expand(s.Bearer, vars))
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	res.Duration = time.Since(start)
	res.Status = resp.StatusCode

	if len(s.Capture) > 0 && resp.StatusCode == s.Expect {
		var decoded map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			res.Error = fmt.Errorf("decode body: %w", err)
			return res
		}
		for name, field := range s.Capture {
			value, _ := decoded[field].(string)
			if value == "" {
				res.Error = fmt.Errorf("response has no %q", field)
				return res
			}
			vars[name] = value
		}
	}

	return res
}

func expand(value string, vars map[string]string) string {
	for name, v := range vars {
		value = strings.ReplaceAll(value, "{{"+name+"}}", v)
	}
	return value
}

func printReport(results []result) {
	fmt.Println("Account Smoke Report")
	fmt.Println("====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if res.Status != res.Step.Expect {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s %s\n", status, res.Step.Name, res.Step.Method, res.Step.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (expected %d, %s) | Critical: %t\n", res.Status, res.Step.Expect, res.Duration, res.Step.Critical)
	}
	if len(results) == 0 {
		log.Println("no steps executed")
	}
}
