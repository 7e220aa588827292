package ocsp

import (
	"encoding/asn1"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/remiblancher/go-ocsp/internal/asn1util"
	"github.com/remiblancher/go-ocsp/internal/oids"
)

// Extension is one X.509 extension as carried in OCSP requests and
// responses.
// Extension ::= SEQUENCE {
//
//	extnID      OBJECT IDENTIFIER,
//	critical    BOOLEAN DEFAULT FALSE,
//	extnValue   OCTET STRING }
type Extension struct {
	ID       asn1.ObjectIdentifier
	Critical bool
	Value    []byte
}

// addTo appends the DER encoding of the extension. A false critical
// flag is omitted (DEFAULT FALSE).
func (e *Extension) addTo(b *cryptobyte.Builder) {
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(e.ID)
		if e.Critical {
			b.AddASN1Boolean(true)
		}
		b.AddASN1OctetString(e.Value)
	})
}

// addExtensions appends a SEQUENCE OF Extension.
func addExtensions(b *cryptobyte.Builder, exts []Extension) {
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for i := range exts {
			exts[i].addTo(b)
		}
	})
}

// parseExtensions decodes a SEQUENCE OF Extension node.
func parseExtensions(v *asn1util.Value) ([]Extension, error) {
	if err := v.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, err
	}
	var exts []Extension
	for i := range v.Children {
		node := &v.Children[i]
		if err := node.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
			return nil, err
		}
		it := node.Iter()
		idNode, err := it.Next()
		if err != nil {
			return nil, err
		}
		id, err := idNode.ObjectIdentifier()
		if err != nil {
			return nil, err
		}
		var critical bool
		if boolNode := it.TakeUniversal(asn1util.TagBoolean); boolNode != nil {
			critical, err = boolNode.Bool()
			if err != nil {
				return nil, err
			}
		}
		valNode, err := it.Next()
		if err != nil {
			return nil, err
		}
		value, err := valNode.OctetString()
		if err != nil {
			return nil, err
		}
		exts = append(exts, Extension{ID: id, Critical: critical, Value: value})
	}
	return exts, nil
}

// nonceFromExtensions returns the nonce bytes from the first
// id-pkix-ocsp-nonce extension, unwrapping the inner OCTET STRING. A
// nonce whose value is not a wrapped OCTET STRING is returned raw.
func nonceFromExtensions(exts []Extension) ([]byte, bool) {
	for i := range exts {
		if !exts[i].ID.Equal(oids.OcspNonce) {
			continue
		}
		inner, err := asn1util.Decode(exts[i].Value)
		if err == nil && inner.Class == asn1util.ClassUniversal && inner.Tag == asn1util.TagOctetString {
			if content, err := inner.OctetString(); err == nil {
				return content, true
			}
		}
		return exts[i].Value, true
	}
	return nil, false
}
