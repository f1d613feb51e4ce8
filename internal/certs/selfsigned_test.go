package certs

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	t.Parallel()
	cert, err := Generate(24*time.Hour, "piping.lan", "10.0.0.7")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(cert.TLSCert.Certificate) == 0 {
		t.Fatal("no certificate data")
	}

	x509Cert, err := x509.ParseCertificate(cert.TLSCert.Certificate[0])
	if err != nil {
		t.Fatalf("failed to parse cert: %v", err)
	}
	if validity := x509Cert.NotAfter.Sub(x509Cert.NotBefore); validity != 24*time.Hour {
		t.Errorf("validity: got %v, want 24h", validity)
	}
	if x509Cert.NotAfter.Before(time.Now()) {
		t.Error("cert is already expired")
	}
	if cert.Fingerprint != sha256.Sum256(cert.TLSCert.Certificate[0]) {
		t.Error("fingerprint mismatch")
	}

	names := strings.Join(x509Cert.DNSNames, ",")
	if names != "localhost,piping.lan" {
		t.Errorf("DNS names: got %q", names)
	}
	found := false
	for _, ip := range x509Cert.IPAddresses {
		if ip.Equal(net.ParseIP("10.0.0.7")) {
			found = true
		}
	}
	if !found {
		t.Errorf("10.0.0.7 missing from %v", x509Cert.IPAddresses)
	}
}

func TestGenerateDefaultValidity(t *testing.T) {
	t.Parallel()
	cert, err := Generate(0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	x509Cert, err := x509.ParseCertificate(cert.TLSCert.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	if got := x509Cert.NotAfter.Sub(x509Cert.NotBefore); got != DefaultValidity {
		t.Errorf("validity: got %v, want %v", got, DefaultValidity)
	}
}

func TestParseFingerprint(t *testing.T) {
	t.Parallel()
	cert, err := Generate(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	hexForm := hex.EncodeToString(cert.Fingerprint[:])
	var colons []string
	for i := 0; i < len(hexForm); i += 2 {
		colons = append(colons, strings.ToUpper(hexForm[i:i+2]))
	}

	for _, in := range []string{cert.FingerprintBase64(), hexForm, strings.Join(colons, ":")} {
		fp, err := ParseFingerprint(in)
		if err != nil {
			t.Errorf("ParseFingerprint(%q): %v", in, err)
			continue
		}
		if fp != cert.Fingerprint {
			t.Errorf("ParseFingerprint(%q) decoded a different hash", in)
		}
	}

	if _, err := ParseFingerprint("abcd"); err == nil {
		t.Error("short input accepted")
	}
}

func TestPinnedConfig(t *testing.T) {
	t.Parallel()
	server, err := Generate(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	other, err := Generate(time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	verify := PinnedConfig(server.Fingerprint).VerifyPeerCertificate
	if err := verify(server.TLSCert.Certificate, nil); err != nil {
		t.Errorf("pinned certificate rejected: %v", err)
	}
	if err := verify(other.TLSCert.Certificate, nil); !errors.Is(err, ErrFingerprintMismatch) {
		t.Errorf("got %v, want ErrFingerprintMismatch", err)
	}
	if err := verify(nil, nil); !errors.Is(err, ErrFingerprintMismatch) {
		t.Errorf("empty chain: got %v", err)
	}
}
