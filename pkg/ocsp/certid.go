package ocsp

import (
	"bytes"
	"crypto"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/asn1"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/remiblancher/go-ocsp/internal/asn1util"
	"github.com/remiblancher/go-ocsp/internal/oids"
	"github.com/remiblancher/go-ocsp/pkg/certutil"
)

// CertID identifies a certificate for which status is requested.
// CertID ::= SEQUENCE {
//
//	hashAlgorithm       AlgorithmIdentifier,
//	issuerNameHash      OCTET STRING,
//	issuerKeyHash       OCTET STRING,
//	serialNumber        CertificateSerialNumber }
type CertID struct {
	HashAlgorithm  asn1.ObjectIdentifier
	IssuerNameHash []byte
	IssuerKeyHash  []byte
	SerialNumber   *big.Int
}

// hashOID maps the hash functions accepted for CertID generation.
func hashOID(h crypto.Hash) (asn1.ObjectIdentifier, bool) {
	switch h {
	case crypto.SHA1:
		return oids.SHA1, true
	case crypto.SHA256:
		return oids.SHA256, true
	case crypto.SHA384:
		return oids.SHA384, true
	case crypto.SHA512:
		return oids.SHA512, true
	default:
		return nil, false
	}
}

// GenerateCertID computes the CertID for subject as issued by issuer.
//
// The issuer name hash is computed over the canonical DER re-encoding of
// the issuer's subject Name, and the key hash over the value bits of the
// issuer's subjectPublicKey with the unused-bits octet stripped
// (RFC 6960 §4.1.1). Pass crypto.SHA256 unless the responder is known to
// require SHA-1.
func GenerateCertID(subject, issuer *certutil.Certificate, h crypto.Hash) (*CertID, error) {
	oid, ok := hashOID(h)
	if !ok {
		return nil, certutil.Errorf("unsupported CertID hash algorithm %v", h)
	}

	serial := subject.SerialNumber()
	if serial == nil {
		return nil, certutil.Errorf("certificate has no serial number")
	}

	nameDER, err := issuer.SubjectNameDER()
	if err != nil {
		return nil, err
	}
	keyBits, err := issuer.PublicKeyBits()
	if err != nil {
		return nil, err
	}

	hasher := h.New()
	hasher.Write(nameDER)
	nameHash := hasher.Sum(nil)

	hasher.Reset()
	hasher.Write(keyBits)
	keyHash := hasher.Sum(nil)

	return &CertID{
		HashAlgorithm:  oid,
		IssuerNameHash: nameHash,
		IssuerKeyHash:  keyHash,
		SerialNumber:   serial,
	}, nil
}

// HashAlgorithmName returns the symbolic name of the hash algorithm,
// for example "id-sha256".
func (id *CertID) HashAlgorithmName() string {
	return oids.Name(id.HashAlgorithm)
}

// Equal reports whether both CertIDs agree on all four fields. Serial
// numbers are compared numerically.
func (id *CertID) Equal(other *CertID) bool {
	if id == nil || other == nil {
		return id == other
	}
	if !id.HashAlgorithm.Equal(other.HashAlgorithm) {
		return false
	}
	if !bytes.Equal(id.IssuerNameHash, other.IssuerNameHash) {
		return false
	}
	if !bytes.Equal(id.IssuerKeyHash, other.IssuerKeyHash) {
		return false
	}
	if id.SerialNumber == nil || other.SerialNumber == nil {
		return id.SerialNumber == other.SerialNumber
	}
	return id.SerialNumber.Cmp(other.SerialNumber) == 0
}

// addTo appends the DER encoding of the CertID.
func (id *CertID) addTo(b *cryptobyte.Builder) {
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(id.HashAlgorithm)
			b.AddASN1NULL()
		})
		b.AddASN1OctetString(id.IssuerNameHash)
		b.AddASN1OctetString(id.IssuerKeyHash)
		b.AddASN1BigInt(id.SerialNumber)
	})
}

// parseCertID decodes a CertID from its SEQUENCE node.
func parseCertID(v *asn1util.Value) (*CertID, error) {
	if err := v.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, err
	}
	if len(v.Children) != 4 {
		return nil, verifyErrorf("CertID has %d members, expected 4", len(v.Children))
	}

	alg := &v.Children[0]
	if err := alg.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, err
	}
	if len(alg.Children) == 0 {
		return nil, verifyErrorf("CertID hashAlgorithm is empty")
	}
	oid, err := alg.Children[0].ObjectIdentifier()
	if err != nil {
		return nil, err
	}

	nameHash, err := v.Children[1].OctetString()
	if err != nil {
		return nil, err
	}
	keyHash, err := v.Children[2].OctetString()
	if err != nil {
		return nil, err
	}
	serial, err := v.Children[3].Integer()
	if err != nil {
		return nil, err
	}

	return &CertID{
		HashAlgorithm:  oid,
		IssuerNameHash: nameHash,
		IssuerKeyHash:  keyHash,
		SerialNumber:   serial,
	}, nil
}
