// Package api provides the client for the MovieHub catalog API.
//
// The client owns the authenticated-request layer: it attaches the
// current access credential to every outbound call, detects credential
// expiry via 401 responses, refreshes the credential at most once per
// expiry episode (deduplicated across concurrent requests), replays the
// failed request after a successful refresh, and tears the session down
// when the refresh itself fails.
//
// # Error Handling
//
// The package distinguishes three failure kinds:
//
//   - TransportError: the request never produced a response
//     (network/DNS/timeout); never retried here.
//   - AuthExpiredError: a 401 that survived the refresh flow; the
//     credential is already cleared when callers see it.
//   - APIError: any other non-2xx response, carrying the server's
//     status and message verbatim.
//
// Classification helpers:
//
//	var apiErr *api.APIError
//	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
//		// handle missing movie
//	}
//
// # Refresh Coordination
//
// A herd of concurrently-failing requests produces exactly one call to
// the refresh endpoint. The first caller leads the refresh; late
// joiners suspend and observe the leader's outcome. Requests to
// /auth/login, /auth/register and /auth/refresh-token are exempt from
// the refresh flow regardless of status code.
package api
