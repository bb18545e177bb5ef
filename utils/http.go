package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the sync worker and the auth client. Profile pages
// and validate calls are small; 30s is generous.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
