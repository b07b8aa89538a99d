package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/gigbridge/matchd/internal/sim"
)

// Default simulation parameters.
const (
	defaultCandidates = 200
	defaultRequests   = 50
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		candidates = flag.Int("candidates", defaultCandidates, "Number of candidate profiles to seed")
		requests   = flag.Int("requests", defaultRequests, "Number of requests to create and score")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent compute workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		invite     = flag.Bool("invite", true, "Send shortlist invitations after scoring")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &sim.Config{
		BaseURL:       *baseURL,
		NumCandidates: *candidates,
		NumRequests:   *requests,
		Workers:       *workers,
		Timeout:       *timeout,
		InviteTopN:    *invite,
		Verbose:       *verbose,
	}

	if err := sim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
