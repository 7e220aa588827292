package ocsp

import (
	"bytes"
	"crypto"
	"testing"

	xocsp "golang.org/x/crypto/ocsp"

	"github.com/remiblancher/go-ocsp/internal/oids"
)

func TestU_Request_EncodeIdempotent(t *testing.T) {
	pki := newTestPKI(t)
	req := NewRequest()
	req.AddCertificateID(mustCertID(t, pki.Leaf, pki.CACert, crypto.SHA256))
	req.AddNonce([]byte("nonce"))

	first, err := req.EncodeDER()
	if err != nil {
		t.Fatalf("EncodeDER failed: %v", err)
	}
	second, err := req.EncodeDER()
	if err != nil {
		t.Fatalf("EncodeDER failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("EncodeDER must be byte-identical across calls on an unmutated request")
	}

	// Mutation changes the next encoding.
	req.AddCertificateID(mustCertID(t, pki.Leaf, pki.CACert, crypto.SHA1))
	third, err := req.EncodeDER()
	if err != nil {
		t.Fatalf("EncodeDER failed: %v", err)
	}
	if bytes.Equal(first, third) {
		t.Error("mutation must alter the encoding")
	}
}

func TestU_Request_EmptyFails(t *testing.T) {
	if _, err := NewRequest().EncodeDER(); err == nil {
		t.Error("encoding an empty request must fail")
	}
}

func TestU_Request_NonceRoundTrip(t *testing.T) {
	req := NewRequest()
	if _, ok := req.Nonce(); ok {
		t.Error("fresh request must have no nonce")
	}

	nonce := []byte{0x47, 0xff, 0xaf, 0xc9, 0x18, 0x11, 0x77, 0x0e}
	req.AddNonce(nonce)

	got, ok := req.Nonce()
	if !ok || !bytes.Equal(got, nonce) {
		t.Errorf("Nonce = (%x, %v), want %x", got, ok, nonce)
	}

	exts := req.Extensions()
	if len(exts) != 1 {
		t.Fatalf("expected 1 extension, got %d", len(exts))
	}
	if !exts[0].ID.Equal(oids.OcspNonce) {
		t.Errorf("extension OID = %v, want id-pkix-ocsp-nonce", exts[0].ID)
	}
	if exts[0].Critical {
		t.Error("nonce extension must not be critical")
	}
	// extnValue is DER(OCTET STRING(nonce)).
	wantValue := append([]byte{0x04, byte(len(nonce))}, nonce...)
	if !bytes.Equal(exts[0].Value, wantValue) {
		t.Errorf("extnValue = %x, want %x", exts[0].Value, wantValue)
	}
}

func TestU_Request_DecodeEncodeRoundTrip(t *testing.T) {
	pki := newTestPKI(t)
	req := NewRequest()
	req.AddCertificateID(mustCertID(t, pki.Leaf, pki.CACert, crypto.SHA256))
	req.AddNonce([]byte("nonce"))

	der, err := req.EncodeDER()
	if err != nil {
		t.Fatalf("EncodeDER failed: %v", err)
	}
	parsed, err := ParseRequest(der)
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}

	reDER, err := parsed.EncodeDER()
	if err != nil {
		t.Fatalf("re-encode failed: %v", err)
	}
	if !bytes.Equal(der, reDER) {
		t.Errorf("decode/encode round trip not stable:\n%x\n%x", der, reDER)
	}

	nonce, ok := parsed.Nonce()
	if !ok || string(nonce) != "nonce" {
		t.Errorf("parsed nonce = (%q, %v)", nonce, ok)
	}
}

func TestU_Request_ParseRejectsGarbage(t *testing.T) {
	for _, input := range [][]byte{nil, []byte("1"), {0x30, 0x00}, {0x02, 0x01, 0x00}} {
		if _, err := ParseRequest(input); err == nil {
			t.Errorf("ParseRequest(%x) must fail", input)
		}
	}
}

// TestI_Request_XCryptoParses checks that golang.org/x/crypto/ocsp can
// read a request this library produced.
func TestI_Request_XCryptoParses(t *testing.T) {
	pki := newTestPKI(t)
	certID := mustCertID(t, pki.Leaf, pki.CACert, crypto.SHA256)
	req := NewRequest()
	req.AddCertificateID(certID)

	der, err := req.EncodeDER()
	if err != nil {
		t.Fatalf("EncodeDER failed: %v", err)
	}
	parsed, err := xocsp.ParseRequest(der)
	if err != nil {
		t.Fatalf("x/crypto ParseRequest failed: %v", err)
	}
	if !bytes.Equal(parsed.IssuerNameHash, certID.IssuerNameHash) {
		t.Errorf("issuer name hash = %x, want %x", parsed.IssuerNameHash, certID.IssuerNameHash)
	}
	if !bytes.Equal(parsed.IssuerKeyHash, certID.IssuerKeyHash) {
		t.Errorf("issuer key hash = %x, want %x", parsed.IssuerKeyHash, certID.IssuerKeyHash)
	}
	if parsed.SerialNumber.Cmp(certID.SerialNumber) != 0 {
		t.Errorf("serial = %v, want %v", parsed.SerialNumber, certID.SerialNumber)
	}
}

// TestI_Request_ParsesXCrypto checks the reverse direction: requests
// built by golang.org/x/crypto/ocsp decode into matching CertIDs.
func TestI_Request_ParsesXCrypto(t *testing.T) {
	pki := newTestPKI(t)
	der, err := xocsp.CreateRequest(pki.Leaf.X509(), pki.CACert.X509(), &xocsp.RequestOptions{Hash: crypto.SHA256})
	if err != nil {
		t.Fatalf("x/crypto CreateRequest failed: %v", err)
	}

	parsed, err := ParseRequest(der)
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	want := mustCertID(t, pki.Leaf, pki.CACert, crypto.SHA256)
	if len(parsed.CertificateIDs()) != 1 || !want.Equal(parsed.CertificateIDs()[0]) {
		t.Errorf("parsed CertID does not match: %+v", parsed.CertificateIDs())
	}
}
