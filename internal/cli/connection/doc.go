// Package connection talks to the portal web API.
//
//   - http.go: JSON-over-HTTP client, credential header, error interpretation
//   - tls.go: HTTP/2 capable client trusting extra CA roots
//   - manager.go: the server profile the CLI is pointed at
package connection
