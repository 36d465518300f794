// Package main provides a standalone health check command for RasoiOps.
// It can be used for container health checks, monitoring scripts and debugging.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	aiinfra "github.com/rasoiops/rasoiops/internal/infrastructure/ai"
	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/infrastructure/container"
	"github.com/rasoiops/rasoiops/pkg/healthcheck"
	"github.com/rasoiops/rasoiops/pkg/logger"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	opts := parseFlags()

	if opts.LocalCheck {
		os.Exit(runLocalHealthCheck(opts))
	}
	os.Exit(runRemoteHealthCheck(opts))
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.URL, "url", "", "Health check endpoint URL (default $HEALTH_CHECK_URL or http://localhost:8080/health)")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print individual checks")
	flag.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	flag.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Weakest acceptable status: healthy or degraded")
	flag.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	flag.StringVarP(&opts.ConfigPath, "config", "c", "", "Configuration file path (local mode)")
	flag.BoolVar(&opts.LocalCheck, "local", false, "Probe storage and the model provider directly instead of over HTTP")

	flag.Parse()

	if opts.URL == "" {
		opts.URL = os.Getenv("HEALTH_CHECK_URL")
	}
	if opts.URL == "" {
		opts.URL = "http://localhost:8080/health"
	}
	return opts
}

// runRemoteHealthCheck performs a health check via HTTP
func runRemoteHealthCheck(opts Options) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Printf("Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Printf("Request failed: %v\n", err)
			}
			continue
		}

		var result healthcheck.Response
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			fmt.Printf("Failed to decode response: %v\n", err)
			return exitCodeError
		}
		return outputResult(result, opts)
	}

	fmt.Printf("Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck opens the configured storage and model provider and
// runs the same checks the server registers
func runLocalHealthCheck(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	log := logger.Must(logger.Config{Level: "error", Format: "console", OutputPaths: []string{"stderr"}})
	defer log.Sync() //nolint:errcheck

	store, err := container.NewStorage(cfg, log)
	if err != nil {
		fmt.Printf("Failed to open storage: %v\n", err)
		return exitCodeFailure
	}
	defer store.Close() //nolint:errcheck

	provider, err := aiinfra.NewProvider(cfg.AI, log)
	if err != nil {
		fmt.Printf("Failed to create model provider: %v\n", err)
		return exitCodeError
	}

	hc := container.NewHealthCheck(cfg, store, aiinfra.NewHealthChecker(provider, log), log.With(zap.String("mode", "local")))
	return outputResult(checkUntilAccepted(hc, opts), opts)
}

// checkUntilAccepted re-runs the checks up to opts.RetryCount times until the
// status is acceptable. Caching is disabled so each attempt probes again.
func checkUntilAccepted(hc *healthcheck.HealthCheck, opts Options) healthcheck.Response {
	hc.SetCacheTTL(0)
	expected := healthcheck.Status(opts.ExpectedStatus)

	var result healthcheck.Response
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Printf("Status %s, retrying in %v... (attempt %d/%d)\n", result.Status, opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		result = hc.Check(ctx)
		cancel()
		if exitCode(result.Status, expected) == exitCodeSuccess {
			break
		}
	}
	return result
}

// outputResult prints the result and maps it to an exit code
func outputResult(result healthcheck.Response, opts Options) int {
	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	case "compact":
		data, _ := json.Marshal(result)
		fmt.Println(string(data))
	default:
		outputText(result, opts.Verbose)
	}

	return exitCode(result.Status, healthcheck.Status(opts.ExpectedStatus))
}

func exitCode(status, expected healthcheck.Status) int {
	switch status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if expected == healthcheck.StatusDegraded {
			return exitCodeSuccess
		}
		return exitCodeFailure
	default:
		return exitCodeFailure
	}
}

func outputText(r healthcheck.Response, verbose bool) {
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Version: %s\n", r.Version)
	fmt.Printf("Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Printf("Duration: %dms\n", r.TotalDuration.Milliseconds())

	if verbose && len(r.Checks) > 0 {
		fmt.Println("\nChecks:")
		for _, check := range r.Checks {
			fmt.Printf("  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Printf(" (%s)", check.Message)
			}
			fmt.Printf(" [%dms]\n", check.Duration.Milliseconds())
		}
	}
}
