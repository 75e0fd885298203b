package vaultconfig

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/hashicorp/vault/api"
)

var (
	// Version should be a var type, so the go build tool can override and inject a custom version.
	Version = "0.0.0-dev"
)

// userAgent returns a user agent string in the form:
// vaultconfig/0.0.1 (Darwin arm64; Go go1.25.7)
func userAgent() string {
	return fmt.Sprintf("vaultconfig/%s (%s %s; Go %s)", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// userAgentCallback decorates every outgoing Vault request with the library
// user agent.
func userAgentCallback() api.RequestCallback {
	ua := userAgent()
	return func(req *api.Request) {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}
		req.Headers.Set("User-Agent", ua)
	}
}
