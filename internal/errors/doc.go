// Package errors provides typed errors with kinds, HTTP statuses and exit codes for gido.
//
// # Error Type
//
// Error is the base error type. It wraps an error with a kind, an exit
// code and, for the chat proxy, the HTTP status reported to the caller:
//
//	type Error struct {
//	    Kind    Kind   // Failure category
//	    Code    int    // Exit code
//	    Message string // Caller-facing message
//	    Cause   error  // Wrapped error
//	    Status  int    // HTTP status
//	    Details string // Extra caller-visible context
//	}
//
// # Kinds
//
//	KindInvalidRequest      // 400, malformed proxy input
//	KindServerMisconfigured // 500, no upstream credential
//	KindUpstream            // upstream status, raw body in Details
//	KindInternal            // 500, anything unexpected
//	KindFetch               // monitor page fetch failed
//	KindNotification        // monitor could not send a notification
//	KindConfig              // invalid configuration
//
// # Constructors
//
//	errors.InvalidRequest("Invalid request")
//	errors.UpstreamError(resp.StatusCode, string(body))
//	errors.FetchError(url, err)
//	errors.NotificationError("smtp auth failed", true, err)
//
// # Extracting Exit Codes and Statuses
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
//
//	writeError(w, errors.HTTPStatus(err), err)
package errors
