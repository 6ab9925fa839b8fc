// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notion implements store.Store over the Notion REST API.

Collections are database ids and records are pages. Three endpoints are
used:

	POST  /databases/{id}/query   Query (follows next_cursor)
	PATCH /pages/{id}             Patch, archive=true retracts
	POST  /pages                  Create

Property types map one to one onto store.Kind. Date values keep the
calendar day only.

Any non-2xx reply or network failure is returned wrapped in
store.ErrTransport, except a 404 on Patch which is store.ErrNotFound.
*/
package notion
