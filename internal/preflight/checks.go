// Package preflight provides startup validation checks.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/randomizedcoder/nginx-rtmp-exporter/internal/rtmpstat"
)

// MinFileDescriptors covers the listener, scrape connections and upstream
// fetches with headroom.
const MinFileDescriptors = 256

// Fetcher retrieves one status snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*rtmpstat.Snapshot, error)
}

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Options selects what RunAll checks.
type Options struct {
	// ListenAddr is probed by binding and immediately closing it.
	ListenAddr string

	// Fetcher, when set, is used to reach the status page once.
	Fetcher Fetcher
}

// RunAll executes all preflight checks. An unreachable upstream is only a
// warning: nginx may come up after the exporter.
func RunAll(ctx context.Context, opts Options) *Result {
	result := &Result{
		Checks: make([]Check, 0, 3),
		Passed: true,
	}

	add := func(c Check) {
		result.Checks = append(result.Checks, c)
		if !c.Passed {
			result.Passed = false
		}
	}

	add(checkFileDescriptors(MinFileDescriptors))

	if opts.ListenAddr != "" {
		add(checkListenAddr(opts.ListenAddr))
	}

	if opts.Fetcher != nil {
		add(checkUpstream(ctx, opts.Fetcher))
	}

	return result
}

// checkFileDescriptors verifies sufficient file descriptors are available.
func checkFileDescriptors(required int) Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("unable to check: %v", err),
		}
	}

	actual := int(min(limit.Cur, uint64(1<<31-1)))

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, required),
	}
}

// checkListenAddr verifies the exposition address can be bound.
func checkListenAddr(addr string) Check {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Check{
			Name:    "listen_address",
			Passed:  false,
			Message: fmt.Sprintf("cannot bind %s: %v", addr, err),
		}
	}
	ln.Close()

	return Check{
		Name:    "listen_address",
		Passed:  true,
		Message: fmt.Sprintf("%s is free", addr),
	}
}

// checkUpstream fetches the status page once.
func checkUpstream(ctx context.Context, f Fetcher) Check {
	snap, err := f.Fetch(ctx)
	if err != nil {
		msg := fmt.Sprintf("unreachable: %v", err)
		var de *rtmpstat.DecodeError
		if errors.As(err, &de) {
			msg = fmt.Sprintf("not an nginx-rtmp stat page: %v", err)
		}
		return Check{
			Name:    "upstream",
			Passed:  true,
			Warning: true,
			Message: msg,
		}
	}

	return Check{
		Name:   "upstream",
		Passed: true,
		Message: fmt.Sprintf("nginx %s, nginx-rtmp %s, %d applications",
			snap.NginxVersion, snap.RTMPVersion, len(snap.Applications)),
	}
}

// PrintResults writes the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed || check.Warning {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "file_descriptors":
		return "ulimit -n 1024 (or edit /etc/security/limits.conf)"
	case "listen_address":
		return "stop the process holding the port or pass --listen-address"
	case "upstream":
		return "enable `rtmp_stat all;` on the nginx stat location and check --scrape-url"
	default:
		return "see documentation"
	}
}
