// File: utils/constants.go
package utils

import "time"

// Header carrying the anonymous session id between the front end and the gateway.
const SessionHeader = "X-Session-ID"

// Context keys set by the auth and session middleware.
const (
	CtxUserID    = "userID"
	CtxSessionID = "sessionID"
)

// SearchCacheTTL is how long upstream search responses are reused.
const SearchCacheTTL = 60 * time.Second
