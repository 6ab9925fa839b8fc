// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth checks that webhook requests come from the event source.

# Source Ranges

The event source publishes the networks it delivers from. They are fixed in
DefaultSourceRanges and are not configurable:

	allow := auth.MustAllowlist(auth.DefaultSourceRanges)
	if !allow.Contains(middleware.GetClientIP(r, cfg.TrustProxy)) {
		// 400 Invalid request
	}

# Failure Mode

Contains returns false for any address it cannot parse and logs the reason.
This is network-origin filtering, not cryptographic authentication; it is
the only gate before a mutation is attempted, so every doubt rejects.

IPv4-mapped IPv6 addresses are unmapped before matching, and IPv6 zones are
ignored.
*/
package auth
