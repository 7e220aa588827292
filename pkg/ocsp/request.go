// Package ocsp implements the client side of the Online Certificate
// Status Protocol (RFC 6960): building DER-encoded requests, decoding
// and validating responses, and verifying responder signatures. A
// response builder and HTTP responder for the server side live in this
// package as well.
package ocsp

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/remiblancher/go-ocsp/internal/asn1util"
	"github.com/remiblancher/go-ocsp/internal/oids"
)

// Request accumulates certificate IDs and request extensions, and
// serializes them as a DER OCSPRequest (RFC 6960 §4.1.1).
// OCSPRequest ::= SEQUENCE {
//
//	tbsRequest                  TBSRequest,
//	optionalSignature   [0]     EXPLICIT Signature OPTIONAL }
//
// TBSRequest ::= SEQUENCE {
//
//	version             [0]     EXPLICIT Version DEFAULT v1,
//	requestorName       [1]     EXPLICIT GeneralName OPTIONAL,
//	requestList                 SEQUENCE OF Request,
//	requestExtensions   [2]     EXPLICIT Extensions OPTIONAL }
//
// The version is always v1 and omitted on the wire; optionalSignature
// is never emitted. A Request stays mutable after encoding: later
// mutations alter the next EncodeDER output.
type Request struct {
	certIDs    []*CertID
	extensions []Extension
}

// NewRequest returns an empty request.
func NewRequest() *Request { return &Request{} }

// AddCertificateID appends a certificate to the request list.
func (r *Request) AddCertificateID(id *CertID) {
	r.certIDs = append(r.certIDs, id)
}

// CertificateIDs returns the accumulated request list.
func (r *Request) CertificateIDs() []*CertID { return r.certIDs }

// Extensions returns the accumulated request extensions.
func (r *Request) Extensions() []Extension { return r.extensions }

// AddNonce sets an id-pkix-ocsp-nonce extension carrying the given
// bytes, replacing any previous nonce: a request carries at most one.
// The caller supplies the randomness; this library does not generate
// nonces.
func (r *Request) AddNonce(nonce []byte) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1OctetString(nonce)
	ext := Extension{
		ID:       oids.OcspNonce,
		Critical: false,
		Value:    b.BytesOrPanic(),
	}
	for i := range r.extensions {
		if r.extensions[i].ID.Equal(oids.OcspNonce) {
			r.extensions[i] = ext
			return
		}
	}
	r.extensions = append(r.extensions, ext)
}

// Nonce returns the inner nonce bytes of the first nonce extension.
func (r *Request) Nonce() ([]byte, bool) {
	return nonceFromExtensions(r.extensions)
}

// EncodeDER serializes the request. The output is a pure function of
// the request state: repeated calls return identical bytes.
func (r *Request) EncodeDER() ([]byte, error) {
	if len(r.certIDs) == 0 {
		return nil, fmt.Errorf("OCSP request contains no certificate IDs")
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) { // OCSPRequest
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) { // TBSRequest
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) { // requestList
				for _, id := range r.certIDs {
					b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) { // Request
						id.addTo(b)
					})
				}
			})
			if len(r.extensions) > 0 {
				b.AddASN1(cbasn1.Tag(2).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
					addExtensions(b, r.extensions)
				})
			}
		})
	})
	return b.Bytes()
}

// ParseRequest decodes a DER OCSPRequest, as received by a responder.
// The optional signature and per-request extensions are ignored.
func ParseRequest(der []byte) (*Request, error) {
	root, err := asn1util.DecodeSequence(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
	}
	it := root.Iter()
	tbs, err := it.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
	}
	if err := tbs.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
	}

	req := &Request{}
	ti := tbs.Iter()
	if versionNode := ti.TakeContext(0); versionNode != nil {
		inner, err := versionNode.Explicit()
		if err != nil {
			return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
		}
		version, err := inner.Int64()
		if err != nil {
			return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
		}
		if version != 0 {
			return nil, fmt.Errorf("unsupported OCSP request version: %d", version)
		}
	}
	ti.TakeContext(1) // requestorName, ignored

	list, err := ti.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
	}
	if err := list.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
	}
	if len(list.Children) == 0 {
		return nil, fmt.Errorf("OCSP request contains no certificate requests")
	}
	for i := range list.Children {
		single := &list.Children[i]
		if err := single.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
			return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
		}
		if len(single.Children) == 0 {
			return nil, fmt.Errorf("OCSP request entry is empty")
		}
		id, err := parseCertID(&single.Children[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
		}
		req.certIDs = append(req.certIDs, id)
	}

	if extNode := ti.TakeContext(2); extNode != nil {
		inner, err := extNode.Explicit()
		if err != nil {
			return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
		}
		req.extensions, err = parseExtensions(inner)
		if err != nil {
			return nil, fmt.Errorf("failed to parse OCSP request: %w", err)
		}
	}
	return req, nil
}
