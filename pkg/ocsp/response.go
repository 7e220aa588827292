package ocsp

import (
	"encoding/asn1"
	"time"

	"github.com/remiblancher/go-ocsp/internal/asn1util"
	"github.com/remiblancher/go-ocsp/internal/oids"
	"github.com/remiblancher/go-ocsp/pkg/certutil"
)

// Response is a decoded OCSPResponse (RFC 6960 §4.2.1).
// OCSPResponse ::= SEQUENCE {
//
//	responseStatus         OCSPResponseStatus,
//	responseBytes          [0] EXPLICIT ResponseBytes OPTIONAL }
//
// ResponseBytes ::= SEQUENCE {
//
//	responseType   OBJECT IDENTIFIER,
//	response       OCTET STRING }
type Response struct {
	status       ResponseStatus
	responseType asn1.ObjectIdentifier
	basic        *BasicResponse
	basicErr     error
	revokeReason string
}

// ResponderID is the responderID CHOICE of ResponseData: exactly one of
// ByName (a DER Name) or ByKey (a SHA-1 key hash) is set.
type ResponderID struct {
	ByName []byte
	ByKey  []byte
}

// SingleResponse carries the status of one certificate.
// SingleResponse ::= SEQUENCE {
//
//	certID                       CertID,
//	certStatus                   CertStatus,
//	thisUpdate                   GeneralizedTime,
//	nextUpdate           [0]     EXPLICIT GeneralizedTime OPTIONAL,
//	singleExtensions     [1]     EXPLICIT Extensions OPTIONAL }
type SingleResponse struct {
	CertID              *CertID
	Status              CertStatus
	RevocationTime      time.Time
	RevocationReason    RevocationReason
	HasRevocationReason bool
	ThisUpdate          time.Time
	NextUpdate          time.Time
	Extensions          []Extension
}

// BasicResponse is a decoded BasicOCSPResponse. The tbsResponseData
// bytes are retained exactly as received; signature verification runs
// over that span, never over a re-encoding.
type BasicResponse struct {
	responderID        ResponderID
	producedAt         time.Time
	responses          []SingleResponse
	extensions         []Extension
	signatureAlgorithm asn1.ObjectIdentifier
	signature          []byte
	certs              []*certutil.Certificate
	tbsRaw             []byte
}

// ParseResponse decodes a DER or BER OCSPResponse. A response whose
// status is not successful decodes to a Response exposing only the
// status. The nested BasicOCSPResponse is decoded in a second pass over
// the inner OCTET STRING content.
func ParseResponse(der []byte) (*Response, error) {
	root, err := asn1util.DecodeSequence(der)
	if err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}
	it := root.Iter()
	statusNode, err := it.Next()
	if err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}
	if err := statusNode.Expect(asn1util.ClassUniversal, asn1util.TagEnumerated); err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}
	status, err := statusNode.Enumerated()
	if err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}

	resp := &Response{status: ResponseStatus(status)}

	bytesNode := it.TakeContext(0)
	if bytesNode == nil {
		return resp, nil
	}
	inner, err := bytesNode.Explicit()
	if err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}
	if err := inner.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}
	bi := inner.Iter()
	typeNode, err := bi.Next()
	if err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}
	resp.responseType, err = typeNode.ObjectIdentifier()
	if err != nil {
		return nil, &ResponseDecodeError{Err: err}
	}

	if resp.status != StatusSuccessful || !resp.responseType.Equal(oids.OcspBasic) {
		return resp, nil
	}

	payloadNode := bi.TakeUniversal(asn1util.TagOctetString)
	if payloadNode == nil {
		resp.basicErr = unexpectedValuef("Could not decode OcspResponse->responseBytes->response")
		return resp, nil
	}
	payload, err := payloadNode.OctetString()
	if err != nil || len(payload) == 0 {
		resp.basicErr = unexpectedValuef("Could not decode OcspResponse->responseBytes->response")
		return resp, nil
	}

	basic, err := parseBasicResponse(payload)
	if err != nil {
		resp.basicErr = unexpectedValuef("Could not decode OcspResponse->responseBytes->response")
		return resp, nil
	}
	resp.basic = basic
	return resp, nil
}

// Status returns the response status. Its String form matches the
// RFC 6960 enumeration names.
func (r *Response) Status() ResponseStatus { return r.status }

// BasicResponse returns the decoded BasicOCSPResponse carried by a
// successful response.
func (r *Response) BasicResponse() (*BasicResponse, error) {
	if r.responseType != nil && !r.responseType.Equal(oids.OcspBasic) {
		return nil, unexpectedValuef("responseType is not %q but is %q",
			"id-pkix-ocsp-basic", oids.Name(r.responseType))
	}
	if r.basicErr != nil {
		return nil, r.basicErr
	}
	if r.basic == nil {
		return nil, unexpectedValuef("Could not decode OcspResponse->responseBytes->response")
	}
	return r.basic, nil
}

// ValidateCertificateID checks that the response answers for the
// requested certificate.
func (r *Response) ValidateCertificateID(expected *CertID) error {
	basic, err := r.BasicResponse()
	if err != nil {
		return err
	}
	if len(basic.responses) == 0 {
		return verifyErrorf("OCSP response must contain one response, received 0 responses instead")
	}
	if !expected.Equal(basic.responses[0].CertID) {
		return verifyErrorf("OCSP responded with certificate ID that differs from the requested ID")
	}
	return nil
}

// validateShape enforces this library's integrity rules: exactly one
// single response, and at least one certificate so the responder
// certificate is available for signature verification.
func (r *Response) validateShape() (*BasicResponse, error) {
	basic, err := r.BasicResponse()
	if err != nil {
		return nil, err
	}
	if len(basic.responses) != 1 {
		return nil, verifyErrorf("OCSP response must contain one response, received %d responses instead", len(basic.responses))
	}
	if len(basic.certs) == 0 {
		return nil, verifyErrorf("OCSP response must contain the responder certificate, but none was provided")
	}
	return basic, nil
}

// IsRevoked reports the revocation state of the single certificate in
// the response. known is false when the responder answered "unknown".
// A revocation reason, when present, is retained for RevokeReason.
func (r *Response) IsRevoked() (revoked, known bool, err error) {
	basic, err := r.validateShape()
	if err != nil {
		return false, false, err
	}
	single := &basic.responses[0]
	switch single.Status {
	case CertStatusGood:
		return false, true, nil
	case CertStatusRevoked:
		if single.HasRevocationReason {
			r.revokeReason = single.RevocationReason.String()
		}
		return true, true, nil
	default:
		return false, false, nil
	}
}

// RevokeReason returns the symbolic revocation reason recorded by
// IsRevoked, or an empty string when none was present.
func (r *Response) RevokeReason() string { return r.revokeReason }

// parseBasicResponse decodes a BasicOCSPResponse.
// BasicOCSPResponse ::= SEQUENCE {
//
//	tbsResponseData      ResponseData,
//	signatureAlgorithm   AlgorithmIdentifier,
//	signature            BIT STRING,
//	certs            [0] EXPLICIT SEQUENCE OF Certificate OPTIONAL }
func parseBasicResponse(der []byte) (*BasicResponse, error) {
	root, err := asn1util.DecodeSequence(der)
	if err != nil {
		return nil, err
	}
	it := root.Iter()

	tbs, err := it.Next()
	if err != nil {
		return nil, err
	}
	if err := tbs.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, err
	}

	basic := &BasicResponse{tbsRaw: tbs.Full}
	if err := basic.parseResponseData(tbs); err != nil {
		return nil, err
	}

	algNode, err := it.Next()
	if err != nil {
		return nil, err
	}
	if err := algNode.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, err
	}
	if len(algNode.Children) == 0 {
		return nil, verifyErrorf("signatureAlgorithm is empty")
	}
	basic.signatureAlgorithm, err = algNode.Children[0].ObjectIdentifier()
	if err != nil {
		return nil, err
	}

	sigNode, err := it.Next()
	if err != nil {
		return nil, err
	}
	if err := sigNode.Expect(asn1util.ClassUniversal, asn1util.TagBitString); err != nil {
		return nil, err
	}
	basic.signature, err = sigNode.BitString()
	if err != nil {
		return nil, err
	}

	if certsNode := it.TakeContext(0); certsNode != nil {
		inner, err := certsNode.Explicit()
		if err != nil {
			return nil, err
		}
		if err := inner.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
			return nil, err
		}
		for i := range inner.Children {
			cert, err := certutil.FromBytes(inner.Children[i].Full)
			if err != nil {
				return nil, err
			}
			basic.certs = append(basic.certs, cert)
		}
	}
	return basic, nil
}

// parseResponseData fills in the tbsResponseData fields.
// ResponseData ::= SEQUENCE {
//
//	version              [0] EXPLICIT Version DEFAULT v1,
//	responderID              ResponderID,
//	producedAt               GeneralizedTime,
//	responses                SEQUENCE OF SingleResponse,
//	responseExtensions   [1] EXPLICIT Extensions OPTIONAL }
//
// ResponderID ::= CHOICE {
//
//	byName   [1] Name,
//	byKey    [2] KeyHash }
func (b *BasicResponse) parseResponseData(tbs *asn1util.Value) error {
	it := tbs.Iter()
	if versionNode := it.TakeContext(0); versionNode != nil {
		inner, err := versionNode.Explicit()
		if err != nil {
			return err
		}
		if _, err := inner.Int64(); err != nil {
			return err
		}
	}

	idNode, err := it.Next()
	if err != nil {
		return err
	}
	switch {
	case idNode.IsContext(1):
		inner, err := idNode.Explicit()
		if err != nil {
			return err
		}
		b.responderID.ByName = inner.Full
	case idNode.IsContext(2):
		inner, err := idNode.Explicit()
		if err != nil {
			return err
		}
		b.responderID.ByKey, err = inner.OctetString()
		if err != nil {
			return err
		}
	default:
		return verifyErrorf("responderID has unexpected tag %d", idNode.Tag)
	}

	timeNode, err := it.Next()
	if err != nil {
		return err
	}
	b.producedAt, err = timeNode.Time()
	if err != nil {
		return err
	}

	listNode, err := it.Next()
	if err != nil {
		return err
	}
	if err := listNode.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return err
	}
	for i := range listNode.Children {
		single, err := parseSingleResponse(&listNode.Children[i])
		if err != nil {
			return err
		}
		b.responses = append(b.responses, *single)
	}

	if extNode := it.TakeContext(1); extNode != nil {
		inner, err := extNode.Explicit()
		if err != nil {
			return err
		}
		b.extensions, err = parseExtensions(inner)
		if err != nil {
			return err
		}
	}
	return nil
}

// certStatus CHOICE tags (RFC 6960 §4.2.1): good [0] IMPLICIT NULL,
// revoked [1] IMPLICIT RevokedInfo, unknown [2] IMPLICIT NULL.
const (
	statusTagGood    = 0
	statusTagRevoked = 1
	statusTagUnknown = 2
)

func parseSingleResponse(v *asn1util.Value) (*SingleResponse, error) {
	if err := v.Expect(asn1util.ClassUniversal, asn1util.TagSequence); err != nil {
		return nil, err
	}
	it := v.Iter()

	idNode, err := it.Next()
	if err != nil {
		return nil, err
	}
	single := &SingleResponse{}
	single.CertID, err = parseCertID(idNode)
	if err != nil {
		return nil, err
	}

	statusNode, err := it.Next()
	if err != nil {
		return nil, err
	}
	if statusNode.Class != asn1util.ClassContextSpecific {
		return nil, verifyErrorf("certStatus has unexpected class %d", statusNode.Class)
	}
	switch statusNode.Tag {
	case statusTagGood:
		single.Status = CertStatusGood
	case statusTagUnknown:
		single.Status = CertStatusUnknown
	case statusTagRevoked:
		single.Status = CertStatusRevoked
		// RevokedInfo ::= SEQUENCE {
		//	revocationTime              GeneralizedTime,
		//	revocationReason    [0]     EXPLICIT CRLReason OPTIONAL }
		ri := statusNode.Iter()
		timeNode, err := ri.Next()
		if err != nil {
			return nil, err
		}
		single.RevocationTime, err = timeNode.Time()
		if err != nil {
			return nil, err
		}
		if reasonNode := ri.TakeContext(0); reasonNode != nil {
			inner, err := reasonNode.Explicit()
			if err != nil {
				return nil, err
			}
			reason, err := inner.Enumerated()
			if err != nil {
				return nil, err
			}
			single.RevocationReason = RevocationReason(reason)
			single.HasRevocationReason = true
		}
	default:
		return nil, verifyErrorf("certStatus has unexpected tag %d", statusNode.Tag)
	}

	thisNode, err := it.Next()
	if err != nil {
		return nil, err
	}
	single.ThisUpdate, err = thisNode.Time()
	if err != nil {
		return nil, err
	}

	if nextNode := it.TakeContext(0); nextNode != nil {
		inner, err := nextNode.Explicit()
		if err != nil {
			return nil, err
		}
		single.NextUpdate, err = inner.Time()
		if err != nil {
			return nil, err
		}
	}
	if extNode := it.TakeContext(1); extNode != nil {
		inner, err := extNode.Explicit()
		if err != nil {
			return nil, err
		}
		single.Extensions, err = parseExtensions(inner)
		if err != nil {
			return nil, err
		}
	}
	return single, nil
}

// ResponderID returns the responderID choice.
func (b *BasicResponse) ResponderID() ResponderID { return b.responderID }

// Responses returns the single-response list in wire order.
func (b *BasicResponse) Responses() []SingleResponse { return b.responses }

// Certificates returns the certificates embedded in the response. The
// first one is the responder certificate used for signature
// verification.
func (b *BasicResponse) Certificates() []*certutil.Certificate { return b.certs }

// ProducedAt returns when the responder generated the response.
func (b *BasicResponse) ProducedAt() time.Time { return b.producedAt }

// ThisUpdate returns the thisUpdate time of the first single response.
func (b *BasicResponse) ThisUpdate() time.Time {
	if len(b.responses) == 0 {
		return time.Time{}
	}
	return b.responses[0].ThisUpdate
}

// NextUpdate returns the nextUpdate time of the first single response,
// if present.
func (b *BasicResponse) NextUpdate() (time.Time, bool) {
	if len(b.responses) == 0 || b.responses[0].NextUpdate.IsZero() {
		return time.Time{}, false
	}
	return b.responses[0].NextUpdate, true
}

// Signature returns the raw signature bytes.
func (b *BasicResponse) Signature() []byte { return b.signature }

// SignatureAlgorithmOID returns the declared signature algorithm.
func (b *BasicResponse) SignatureAlgorithmOID() asn1.ObjectIdentifier {
	return b.signatureAlgorithm
}

// SignatureAlgorithm returns the symbolic name of the signature
// algorithm, for example "sha256WithRSAEncryption".
func (b *BasicResponse) SignatureAlgorithm() string {
	return oids.Name(b.signatureAlgorithm)
}

// Nonce returns the inner bytes of the id-pkix-ocsp-nonce response
// extension, if present.
func (b *BasicResponse) Nonce() ([]byte, bool) {
	return nonceFromExtensions(b.extensions)
}

// Extensions returns the responseExtensions list.
func (b *BasicResponse) Extensions() []Extension { return b.extensions }

// CertID returns the CertID of the first single response.
func (b *BasicResponse) CertID() *CertID {
	if len(b.responses) == 0 {
		return nil
	}
	return b.responses[0].CertID
}

// EncodedResponseData returns the tbsResponseData bytes exactly as they
// appeared on the wire.
func (b *BasicResponse) EncodedResponseData() []byte { return b.tbsRaw }
