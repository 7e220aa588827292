package ocsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/remiblancher/go-ocsp/pkg/certutil"
)

// testKeyPair holds a key pair for testing.
type testKeyPair struct {
	PrivateKey crypto.Signer
	PublicKey  crypto.PublicKey
}

// generateECDSAKeyPair generates an ECDSA key pair for testing.
func generateECDSAKeyPair(t *testing.T, curve elliptic.Curve) *testKeyPair {
	t.Helper()
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate ECDSA key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: &priv.PublicKey}
}

// generateRSAKeyPair generates an RSA key pair for testing.
func generateRSAKeyPair(t *testing.T, bits int) *testKeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: &priv.PublicKey}
}

// generateEd25519KeyPair generates an Ed25519 key pair for testing.
func generateEd25519KeyPair(t *testing.T) *testKeyPair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: pub}
}

func randomSerial(t *testing.T) *big.Int {
	t.Helper()
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("Failed to generate serial number: %v", err)
	}
	return serial
}

// generateTestCA creates a test CA certificate and key pair.
func generateTestCA(t *testing.T, kp *testKeyPair) (*x509.Certificate, crypto.Signer) {
	t.Helper()

	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   "Test CA",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, kp.PublicKey, kp.PrivateKey)
	if err != nil {
		t.Fatalf("Failed to create CA certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("Failed to parse CA certificate: %v", err)
	}
	return cert, kp.PrivateKey
}

// issueTestCertificate issues an end-entity certificate signed by a CA.
func issueTestCertificate(t *testing.T, caCert *x509.Certificate, caKey crypto.Signer, kp *testKeyPair) *x509.Certificate {
	t.Helper()

	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   "Test End Entity",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		OCSPServer:            []string{"http://ocsp.test.example"},
		IssuingCertificateURL: []string{"http://ca.test.example/ca.crt"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, caCert, kp.PublicKey, caKey)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}
	return cert
}

// generateResponderCert creates an OCSP responder certificate.
func generateResponderCert(t *testing.T, caCert *x509.Certificate, caKey crypto.Signer, kp *testKeyPair) *x509.Certificate {
	t.Helper()

	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   "Test OCSP Responder",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageOCSPSigning},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, caCert, kp.PublicKey, caKey)
	if err != nil {
		t.Fatalf("Failed to create OCSP responder certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("Failed to parse OCSP responder certificate: %v", err)
	}
	return cert
}

// testPKI bundles the usual fixture: a CA, a leaf, and a delegated
// responder, all ECDSA P-256.
type testPKI struct {
	CACert        *certutil.Certificate
	CAKey         crypto.Signer
	Leaf          *certutil.Certificate
	ResponderCert *certutil.Certificate
	ResponderKey  crypto.Signer
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()
	caCert, caKey := generateTestCA(t, generateECDSAKeyPair(t, elliptic.P256()))
	leaf := issueTestCertificate(t, caCert, caKey, generateECDSAKeyPair(t, elliptic.P256()))
	respKP := generateECDSAKeyPair(t, elliptic.P256())
	respCert := generateResponderCert(t, caCert, caKey, respKP)
	return &testPKI{
		CACert:        certutil.New(caCert),
		CAKey:         caKey,
		Leaf:          certutil.New(leaf),
		ResponderCert: certutil.New(respCert),
		ResponderKey:  respKP.PrivateKey,
	}
}

// mustCertID generates a CertID or fails the test.
func mustCertID(t *testing.T, subject, issuer *certutil.Certificate, h crypto.Hash) *CertID {
	t.Helper()
	id, err := GenerateCertID(subject, issuer, h)
	if err != nil {
		t.Fatalf("GenerateCertID failed: %v", err)
	}
	return id
}
