package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a CA bundle holds no certificates.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// Bundle is the set of roots the portal client trusts.
type Bundle struct {
	pool   *x509.CertPool
	source string
	added  int
}

// Load returns the system roots extended with the certificates in caFile.
// An empty caFile yields the system roots alone. Hosts without a readable
// system store start from an empty pool.
func Load(caFile string) (*Bundle, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	b := &Bundle{pool: pool, source: "system"}
	if caFile == "" {
		return b, nil
	}

	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: read CA bundle: %w", err)
	}
	if err := b.Append(data); err != nil {
		return nil, fmt.Errorf("tlsroots: %s: %w", caFile, err)
	}
	b.source = "system+" + caFile
	return b, nil
}

// Append adds every CERTIFICATE block in pemData. Other block types are
// skipped; a malformed certificate fails the whole call.
func (b *Bundle) Append(pemData []byte) error {
	var certs []*x509.Certificate
	for rest := pemData; len(rest) > 0; {
		var block *pem.Block
		if block, rest = pem.Decode(rest); block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return ErrNoCertsFound
	}

	for _, cert := range certs {
		b.pool.AddCert(cert)
	}
	b.added += len(certs)
	return nil
}

// Added returns how many certificates came from CA bundles.
func (b *Bundle) Added() int { return b.added }

// Source describes where the roots came from, for logging.
func (b *Bundle) Source() string { return b.source }

// CertPool returns the underlying pool.
func (b *Bundle) CertPool() *x509.CertPool { return b.pool }

// ClientConfig returns a TLS 1.2+ client config that offers HTTP/2 first.
func (b *Bundle) ClientConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    b.pool,
		MinVersion: tls.VersionTLS12,
		NextProtos: []string{"h2", "http/1.1"},
	}
}
