// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
)

// DefaultSourceRanges are the networks the event source delivers webhooks
// from. They are not configurable.
var DefaultSourceRanges = []string{
	"149.154.160.0/20",
	"91.108.4.0/22",
}

// Allowlist is a fixed set of network ranges permitted to post events.
type Allowlist struct {
	prefixes []netip.Prefix
}

// NewAllowlist parses CIDR blocks. Any invalid block is an error.
func NewAllowlist(cidrs []string) (*Allowlist, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("invalid source range %q: %w", c, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	return &Allowlist{prefixes: prefixes}, nil
}

// MustAllowlist is NewAllowlist for ranges known at compile time.
func MustAllowlist(cidrs []string) *Allowlist {
	a, err := NewAllowlist(cidrs)
	if err != nil {
		panic(err)
	}
	return a
}

// Contains reports whether addr lies inside one of the ranges.
// Unparsable addresses are never trusted.
func (a *Allowlist) Contains(addr string) bool {
	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		slog.Warn("unable to validate request source", "addr", addr, "error", err)
		return false
	}
	// IPv4-mapped IPv6 (::ffff:a.b.c.d) must match IPv4 ranges
	ip = ip.Unmap().WithZone("")

	for _, p := range a.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// Ranges returns the configured ranges in CIDR notation.
func (a *Allowlist) Ranges() []string {
	out := make([]string, len(a.prefixes))
	for i, p := range a.prefixes {
		out[i] = p.String()
	}
	return out
}
