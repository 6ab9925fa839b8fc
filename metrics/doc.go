// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics exposes webhook counters in the Prometheus format.

	pollsync_events_total{kind, outcome}
	pollsync_event_duration_seconds{kind}

kind is the models.EventKind name ("unknown" for updates rejected or
ignored before classification). outcome is ok, ignored, rejected or a
votesync failure category.
*/
package metrics
