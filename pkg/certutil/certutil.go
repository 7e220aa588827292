// Package certutil loads X.509 certificates and exposes the fields the
// OCSP exchange needs: serial number, a re-encodable subject Name, the
// subject public key bits, and the Authority Information Access entries
// pointing at the issuer certificate and the OCSP responder.
package certutil

import (
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"

	"github.com/remiblancher/go-ocsp/internal/asn1util"
	"github.com/remiblancher/go-ocsp/internal/oids"
)

// CertificateError reports a certificate that could not be loaded or is
// missing a field required by the OCSP exchange.
type CertificateError struct {
	Msg string
	Err error
}

func (e *CertificateError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *CertificateError) Unwrap() error { return e.Err }

// Errorf builds a CertificateError with a formatted message.
func Errorf(format string, args ...any) *CertificateError {
	return &CertificateError{Msg: fmt.Sprintf(format, args...)}
}

// Certificate wraps a parsed X.509 certificate.
type Certificate struct {
	cert *x509.Certificate
}

// FromFile loads a PEM or DER certificate from path.
func FromFile(path string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CertificateError{Msg: fmt.Sprintf("could not read certificate file %s", path), Err: err}
	}
	return FromBytes(data)
}

// FromBytes parses a certificate from PEM (with or without surrounding
// text) or raw DER bytes.
func FromBytes(data []byte) (*Certificate, error) {
	der := data
	for rest := data; ; {
		block, remaining := pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			der = block.Bytes
			break
		}
		rest = remaining
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &CertificateError{Msg: "could not parse certificate", Err: err}
	}
	return &Certificate{cert: cert}, nil
}

// New wraps an already-parsed certificate.
func New(cert *x509.Certificate) *Certificate {
	return &Certificate{cert: cert}
}

// X509 returns the underlying parsed certificate.
func (c *Certificate) X509() *x509.Certificate { return c.cert }

// SerialNumber returns the certificate serial.
func (c *Certificate) SerialNumber() *big.Int { return c.cert.SerialNumber }

// PublicKey returns the subject public key as parsed by crypto/x509.
// It is nil when the algorithm is unknown to the standard library; use
// PublicKeyBits to recover the raw key material in that case.
func (c *Certificate) PublicKey() crypto.PublicKey { return c.cert.PublicKey }

// SubjectNameDER returns the canonical DER re-encoding of the subject
// Name. For a DER-encoded certificate this is byte-identical to the
// wire form; BER-tolerated input is normalized.
func (c *Certificate) SubjectNameDER() ([]byte, error) {
	if len(c.cert.RawSubject) == 0 {
		return nil, Errorf("certificate has no subject name")
	}
	name, err := asn1util.DecodeSequence(c.cert.RawSubject)
	if err != nil {
		return nil, &CertificateError{Msg: "could not decode subject name", Err: err}
	}
	return asn1util.EncodeValue(name), nil
}

// PublicKeyBits returns the value bytes of the subjectPublicKey BIT
// STRING with the unused-bits octet stripped.
func (c *Certificate) PublicKeyBits() ([]byte, error) {
	if len(c.cert.RawSubjectPublicKeyInfo) == 0 {
		return nil, Errorf("certificate has no subject public key info")
	}
	spki, err := asn1util.DecodeSequence(c.cert.RawSubjectPublicKeyInfo)
	if err != nil {
		return nil, &CertificateError{Msg: "could not decode subject public key info", Err: err}
	}
	if len(spki.Children) != 2 {
		return nil, Errorf("subject public key info has %d members, want 2", len(spki.Children))
	}
	bits, err := spki.Children[1].BitString()
	if err != nil {
		return nil, &CertificateError{Msg: "could not decode subject public key", Err: err}
	}
	return bits, nil
}

// SPKIAlgorithm returns the OID of the subject public key algorithm.
func (c *Certificate) SPKIAlgorithm() (asn1.ObjectIdentifier, error) {
	spki, err := asn1util.DecodeSequence(c.cert.RawSubjectPublicKeyInfo)
	if err != nil {
		return nil, &CertificateError{Msg: "could not decode subject public key info", Err: err}
	}
	if len(spki.Children) != 2 {
		return nil, Errorf("subject public key info has %d members, want 2", len(spki.Children))
	}
	alg := &spki.Children[0]
	if err := alg.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, &CertificateError{Msg: "malformed algorithm identifier", Err: err}
	}
	if len(alg.Children) == 0 {
		return nil, Errorf("empty algorithm identifier")
	}
	oid, err := alg.Children[0].ObjectIdentifier()
	if err != nil {
		return nil, &CertificateError{Msg: "malformed algorithm identifier", Err: err}
	}
	return oid, nil
}

// AIAEntry is one AccessDescription from the Authority Information
// Access extension, with the uniformResourceIdentifier choice of
// GeneralName. Entries with other location forms are skipped.
type AIAEntry struct {
	Method asn1.ObjectIdentifier
	URI    string
}

// generalNameURI is the context tag of the uniformResourceIdentifier
// choice (RFC 5280 §4.2.1.6).
const generalNameURI = 6

// AIAEntries parses the Authority Information Access extension. A
// certificate without the extension yields an empty list.
func (c *Certificate) AIAEntries() ([]AIAEntry, error) {
	var raw []byte
	for _, ext := range c.cert.Extensions {
		if ext.Id.Equal(oids.AuthorityInfoAccess) {
			raw = ext.Value
			break
		}
	}
	if raw == nil {
		return nil, nil
	}

	seq, err := asn1util.DecodeSequence(raw)
	if err != nil {
		return nil, &CertificateError{Msg: "could not decode authority information access", Err: err}
	}
	var entries []AIAEntry
	for i := range seq.Children {
		desc := &seq.Children[i]
		if err := desc.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
			return nil, &CertificateError{Msg: "malformed access description", Err: err}
		}
		if len(desc.Children) != 2 {
			return nil, Errorf("access description has %d members, want 2", len(desc.Children))
		}
		method, err := desc.Children[0].ObjectIdentifier()
		if err != nil {
			return nil, &CertificateError{Msg: "malformed access method", Err: err}
		}
		loc := &desc.Children[1]
		if !loc.IsContext(generalNameURI) {
			continue
		}
		entries = append(entries, AIAEntry{Method: method, URI: string(loc.Content)})
	}
	return entries, nil
}

// OCSPResponderURL returns the first AIA entry with the id-ad-ocsp
// access method, or an empty string.
func (c *Certificate) OCSPResponderURL() string {
	return c.firstAIA(oids.ADOcsp)
}

// IssuerCertificateURL returns the first AIA entry with the
// id-ad-caIssuers access method, or an empty string.
func (c *Certificate) IssuerCertificateURL() string {
	return c.firstAIA(oids.ADCAIssuers)
}

func (c *Certificate) firstAIA(method asn1.ObjectIdentifier) string {
	entries, err := c.AIAEntries()
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.Method.Equal(method) {
			return e.URI
		}
	}
	return ""
}
