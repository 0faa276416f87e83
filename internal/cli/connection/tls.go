package connection

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gophercraft/gcportal-go/internal/infra/tlsroots"
	"golang.org/x/net/http2"
)

// NewTLSHTTPClient builds an http.Client that negotiates HTTP/2 over TLS
// and trusts the system roots plus the certificates in caFile.
func NewTLSHTTPClient(caFile string, timeout time.Duration) (*http.Client, error) {
	roots, err := tlsroots.Load(caFile)
	if err != nil {
		return nil, err
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:     roots.ClientConfig(),
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}
