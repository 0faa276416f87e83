// Package tlsroots builds the root certificate pool used by the portal
// HTTP client: system roots plus an optional operator supplied CA bundle
// for self-hosted servers with private certificates.
package tlsroots
