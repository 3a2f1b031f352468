// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly hints for failed backend calls.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"sqlcopilot/cli/internal/backend"
)

// Category is the kind of network failure.
type Category int

const (
	Generic Category = iota
	Timeout
	DNS
	Refused
	TLS
	Server
)

// Hint is a troubleshooting message for one failure.
type Hint struct {
	Category Category
	Title    string
	Causes   []string
	Advice   string
}

// Classify detects common error types: timeout, DNS, connection refused, TLS and 5xx.
func Classify(err error) Category {
	switch {
	case err == nil:
		return Generic
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return Refused
	case isSSLError(err):
		return TLS
	case isServerError(err):
		return Server
	default:
		return Generic
	}
}

// Explain builds the hint for err. context says what was being done
// ("signing in"); host names the backend.
func Explain(err error, context, host string) Hint {
	cat := Classify(err)
	switch cat {
	case Timeout:
		return Hint{cat, fmt.Sprintf("Connection timeout while %s", context), []string{
			"Slow network connection",
			"The service is busy generating an answer",
			"request_timeout is set too low",
		}, "Try again, or raise request_timeout in config.yaml."}
	case DNS:
		return Hint{cat, fmt.Sprintf("Cannot resolve %s while %s", host, context), []string{
			"The host name in api_url is misspelled",
			"DNS settings or network connectivity",
		}, "Check api_url with `sqlcopilot whoami`."}
	case Refused:
		return Hint{cat, fmt.Sprintf("Connection refused by %s while %s", host, context), []string{
			"The backend is not running",
			"Wrong port in api_url",
		}, "Start the backend or point --api-url at it."}
	case TLS:
		return Hint{cat, fmt.Sprintf("Secure connection to %s failed while %s", host, context), []string{
			"Certificate issue",
			"Proxy interfering with HTTPS",
			"System clock is incorrect",
		}, "Use http:// for a local backend."}
	case Server:
		return Hint{cat, fmt.Sprintf("Server error while %s", context), []string{
			"The backend hit an internal error",
		}, "Check the backend logs and try again."}
	default:
		return Hint{cat, fmt.Sprintf("Cannot reach %s while %s", host, context), nil,
			"Check your network and the api_url setting."}
	}
}

// Print shows h on the terminal.
func Print(h Hint) {
	pterm.Warning.Println(h.Title)
	if len(h.Causes) > 0 {
		pterm.Println("This could mean:")
		for _, c := range h.Causes {
			pterm.Println("  • " + c)
		}
	}
	if h.Advice != "" {
		pterm.Println(h.Advice)
	}
	pterm.Println()
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded")
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "tls") ||
		strings.Contains(s, "x509") ||
		strings.Contains(s, "certificate") ||
		strings.Contains(s, "handshake")
}

func isServerError(err error) bool {
	var se *backend.StatusError
	return errors.As(err, &se) && se.Code >= 500
}

// HostOf extracts the host from a URL for messages.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
