package tlsroots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func emptyBundle() *Bundle {
	return &Bundle{pool: x509.NewCertPool()}
}

func TestBundle_Append(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantErr   error
		wantAdded int
	}{
		{name: "single cert", data: generateTestCertPEM(t), wantAdded: 1},
		{name: "two certs", data: append(generateTestCertPEM(t), generateTestCertPEM(t)...), wantAdded: 2},
		{name: "empty", wantErr: ErrNoCertsFound},
		{name: "key only", data: pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1}}), wantErr: ErrNoCertsFound},
		{name: "garbage cert", data: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("nope")})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := emptyBundle()
			err := b.Append(tt.data)
			switch {
			case tt.wantErr != nil && !errors.Is(err, tt.wantErr):
				t.Fatalf("Append() error = %v, want %v", err, tt.wantErr)
			case tt.wantErr == nil && tt.wantAdded > 0 && err != nil:
				t.Fatalf("Append() error = %v", err)
			case tt.wantAdded == 0 && err == nil:
				t.Fatal("Append() should fail")
			}
			if b.Added() != tt.wantAdded {
				t.Errorf("Added() = %d, want %d", b.Added(), tt.wantAdded)
			}
		})
	}
}

func TestBundle_AppendIsAllOrNothing(t *testing.T) {
	b := emptyBundle()
	data := append(generateTestCertPEM(t), pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("nope")})...)
	if err := b.Append(data); err == nil {
		t.Fatal("Append() should fail on a malformed certificate")
	}
	if b.Added() != 0 {
		t.Errorf("Added() = %d after a failed Append, want 0", b.Added())
	}
}

func TestLoad(t *testing.T) {
	b, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if b.Added() != 0 || b.Source() != "system" || b.CertPool() == nil {
		t.Errorf("Load(\"\") = added %d, source %q", b.Added(), b.Source())
	}

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caFile, generateTestCertPEM(t), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err = Load(caFile)
	if err != nil {
		t.Fatalf("Load(caFile) error = %v", err)
	}
	if b.Added() != 1 {
		t.Errorf("Added() = %d, want 1", b.Added())
	}
	if b.Source() != "system+"+caFile {
		t.Errorf("Source() = %q", b.Source())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestClientConfig(t *testing.T) {
	cfg := emptyBundle().ClientConfig()
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
	if len(cfg.NextProtos) == 0 || cfg.NextProtos[0] != "h2" {
		t.Errorf("NextProtos = %v, want h2 first", cfg.NextProtos)
	}
}

func generateTestCertPEM(t *testing.T) []byte {
	t.Helper()

	cert := generateTestCert(t)
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: cert.Raw,
	})
}

// generateTestCert generates a self-signed certificate.
func generateTestCert(t *testing.T) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   "test.local",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}

	return cert
}

