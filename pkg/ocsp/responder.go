package ocsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/asn1"
	"fmt"
	"math/big"
	"sync"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/remiblancher/go-ocsp/internal/oids"
	"github.com/remiblancher/go-ocsp/pkg/certutil"
)

// ResponseBuilder constructs and signs BasicOCSPResponses. It exists
// for the serve command and for exercising the decoder against
// responses this library did not itself parse into existence.
type ResponseBuilder struct {
	responderCert *certutil.Certificate
	signer        crypto.Signer
	producedAt    time.Time
	responses     []SingleResponse
	extensions    []Extension
	includeCerts  bool
}

// NewResponseBuilder creates a builder signing with the responder's key.
func NewResponseBuilder(responderCert *certutil.Certificate, signer crypto.Signer) *ResponseBuilder {
	return &ResponseBuilder{
		responderCert: responderCert,
		signer:        signer,
		producedAt:    time.Now().UTC(),
		includeCerts:  true,
	}
}

// SetProducedAt overrides the producedAt time.
func (b *ResponseBuilder) SetProducedAt(t time.Time) *ResponseBuilder {
	b.producedAt = t.UTC()
	return b
}

// IncludeCerts controls whether the responder certificate is embedded.
func (b *ResponseBuilder) IncludeCerts(include bool) *ResponseBuilder {
	b.includeCerts = include
	return b
}

// AddGood adds a "good" status for a certificate.
func (b *ResponseBuilder) AddGood(certID *CertID, thisUpdate, nextUpdate time.Time) *ResponseBuilder {
	b.responses = append(b.responses, SingleResponse{
		CertID:     certID,
		Status:     CertStatusGood,
		ThisUpdate: thisUpdate.UTC(),
		NextUpdate: nextUpdate.UTC(),
	})
	return b
}

// AddRevoked adds a "revoked" status for a certificate.
func (b *ResponseBuilder) AddRevoked(certID *CertID, thisUpdate, nextUpdate, revocationTime time.Time, reason RevocationReason) *ResponseBuilder {
	b.responses = append(b.responses, SingleResponse{
		CertID:              certID,
		Status:              CertStatusRevoked,
		RevocationTime:      revocationTime.UTC(),
		RevocationReason:    reason,
		HasRevocationReason: true,
		ThisUpdate:          thisUpdate.UTC(),
		NextUpdate:          nextUpdate.UTC(),
	})
	return b
}

// AddUnknown adds an "unknown" status for a certificate.
func (b *ResponseBuilder) AddUnknown(certID *CertID, thisUpdate, nextUpdate time.Time) *ResponseBuilder {
	b.responses = append(b.responses, SingleResponse{
		CertID:     certID,
		Status:     CertStatusUnknown,
		ThisUpdate: thisUpdate.UTC(),
		NextUpdate: nextUpdate.UTC(),
	})
	return b
}

// AddNonce echoes a request nonce into the response extensions.
func (b *ResponseBuilder) AddNonce(nonce []byte) *ResponseBuilder {
	if len(nonce) > 0 {
		v := cryptobyte.NewBuilder(nil)
		v.AddASN1OctetString(nonce)
		b.extensions = append(b.extensions, Extension{
			ID:    oids.OcspNonce,
			Value: v.BytesOrPanic(),
		})
	}
	return b
}

// Build signs and serializes the response.
func (b *ResponseBuilder) Build() ([]byte, error) {
	if len(b.responses) == 0 {
		return nil, fmt.Errorf("no responses added")
	}

	// ResponderID byKey: SHA-1 of the subjectPublicKey bits (RFC 6960
	// §4.2.1, matching SubjectKeyIdentifier per RFC 5280).
	keyBits, err := b.responderCert.PublicKeyBits()
	if err != nil {
		return nil, err
	}
	keyHash := sha1.Sum(keyBits)

	tb := cryptobyte.NewBuilder(nil)
	tb.AddASN1(cbasn1.SEQUENCE, func(tb *cryptobyte.Builder) { // ResponseData
		tb.AddASN1(cbasn1.Tag(2).Constructed().ContextSpecific(), func(tb *cryptobyte.Builder) {
			tb.AddASN1OctetString(keyHash[:])
		})
		tb.AddASN1GeneralizedTime(b.producedAt)
		tb.AddASN1(cbasn1.SEQUENCE, func(tb *cryptobyte.Builder) {
			for i := range b.responses {
				addSingleResponse(tb, &b.responses[i])
			}
		})
		if len(b.extensions) > 0 {
			tb.AddASN1(cbasn1.Tag(1).Constructed().ContextSpecific(), func(tb *cryptobyte.Builder) {
				addExtensions(tb, b.extensions)
			})
		}
	})
	tbsDER, err := tb.Bytes()
	if err != nil {
		return nil, err
	}

	signature, sigAlg, sigParamsNull, err := b.sign(tbsDER)
	if err != nil {
		return nil, fmt.Errorf("failed to sign response: %w", err)
	}

	bb := cryptobyte.NewBuilder(nil)
	bb.AddASN1(cbasn1.SEQUENCE, func(bb *cryptobyte.Builder) { // BasicOCSPResponse
		bb.AddBytes(tbsDER)
		bb.AddASN1(cbasn1.SEQUENCE, func(bb *cryptobyte.Builder) {
			bb.AddASN1ObjectIdentifier(sigAlg)
			if sigParamsNull {
				bb.AddASN1NULL()
			}
		})
		bb.AddASN1BitString(signature)
		if b.includeCerts {
			bb.AddASN1(cbasn1.Tag(0).Constructed().ContextSpecific(), func(bb *cryptobyte.Builder) {
				bb.AddASN1(cbasn1.SEQUENCE, func(bb *cryptobyte.Builder) {
					bb.AddBytes(b.responderCert.X509().Raw)
				})
			})
		}
	})
	basicDER, err := bb.Bytes()
	if err != nil {
		return nil, err
	}

	out := cryptobyte.NewBuilder(nil)
	out.AddASN1(cbasn1.SEQUENCE, func(out *cryptobyte.Builder) { // OCSPResponse
		out.AddASN1Int64WithTag(int64(StatusSuccessful), cbasn1.ENUM)
		out.AddASN1(cbasn1.Tag(0).Constructed().ContextSpecific(), func(out *cryptobyte.Builder) {
			out.AddASN1(cbasn1.SEQUENCE, func(out *cryptobyte.Builder) {
				out.AddASN1ObjectIdentifier(oids.OcspBasic)
				out.AddASN1OctetString(basicDER)
			})
		})
	})
	return out.Bytes()
}

func addSingleResponse(b *cryptobyte.Builder, single *SingleResponse) {
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		single.CertID.addTo(b)
		switch single.Status {
		case CertStatusGood:
			b.AddASN1(cbasn1.Tag(statusTagGood).ContextSpecific(), func(*cryptobyte.Builder) {})
		case CertStatusRevoked:
			b.AddASN1(cbasn1.Tag(statusTagRevoked).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
				b.AddASN1GeneralizedTime(single.RevocationTime)
				if single.HasRevocationReason {
					b.AddASN1(cbasn1.Tag(0).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
						b.AddASN1Int64WithTag(int64(single.RevocationReason), cbasn1.ENUM)
					})
				}
			})
		default:
			b.AddASN1(cbasn1.Tag(statusTagUnknown).ContextSpecific(), func(*cryptobyte.Builder) {})
		}
		b.AddASN1GeneralizedTime(single.ThisUpdate)
		if !single.NextUpdate.IsZero() {
			b.AddASN1(cbasn1.Tag(0).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
				b.AddASN1GeneralizedTime(single.NextUpdate)
			})
		}
	})
}

// sign signs the tbsResponseData and reports the algorithm to declare.
// The boolean result indicates whether the AlgorithmIdentifier carries
// NULL parameters (RSA does, ECDSA and Ed25519 do not).
func (b *ResponseBuilder) sign(tbs []byte) ([]byte, asn1.ObjectIdentifier, bool, error) {
	switch pub := b.signer.Public().(type) {
	case *ecdsa.PublicKey:
		var h crypto.Hash
		var alg asn1.ObjectIdentifier
		switch pub.Curve.Params().BitSize {
		case 256:
			h, alg = crypto.SHA256, oids.ECDSAWithSHA256
		case 384:
			h, alg = crypto.SHA384, oids.ECDSAWithSHA384
		case 521:
			h, alg = crypto.SHA512, oids.ECDSAWithSHA512
		default:
			return nil, nil, false, fmt.Errorf("unsupported ECDSA curve size: %d", pub.Curve.Params().BitSize)
		}
		sig, err := b.signer.Sign(rand.Reader, digest(h, tbs), h)
		return sig, alg, false, err

	case *rsa.PublicKey:
		sig, err := b.signer.Sign(rand.Reader, digest(crypto.SHA256, tbs), crypto.SHA256)
		return sig, oids.SHA256WithRSA, true, err

	case ed25519.PublicKey:
		sig, err := b.signer.Sign(rand.Reader, tbs, crypto.Hash(0))
		return sig, oids.Ed25519, false, err

	default:
		return nil, nil, false, fmt.Errorf("unsupported key type: %T", pub)
	}
}

// BuildErrorResponse serializes an unsigned error response.
func BuildErrorResponse(status ResponseStatus) ([]byte, error) {
	if status == StatusSuccessful {
		return nil, fmt.Errorf("cannot create error response with successful status")
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64WithTag(int64(status), cbasn1.ENUM)
	})
	return b.Bytes()
}

// StatusInfo is one certificate's revocation state as known to a
// responder's source.
type StatusInfo struct {
	Status           CertStatus
	RevocationTime   time.Time
	RevocationReason RevocationReason
}

// Source resolves certificate serials to revocation state.
type Source interface {
	StatusForSerial(serial *big.Int) StatusInfo
}

// ResponderConfig configures a Responder.
type ResponderConfig struct {
	// CACert is the CA whose certificates this responder answers for.
	CACert *certutil.Certificate

	// ResponderCert signs responses. If nil, CACert is used (CA-signed
	// mode) and Signer must hold the CA key.
	ResponderCert *certutil.Certificate

	// Signer is the responder's private key.
	Signer crypto.Signer

	// Source resolves serial numbers to status.
	Source Source

	// Validity is the thisUpdate..nextUpdate window. Default one hour.
	Validity time.Duration

	// CopyNonce echoes request nonces into responses.
	CopyNonce bool
}

// Responder answers parsed OCSP requests for one CA.
type Responder struct {
	cfg ResponderConfig

	// mu serializes signing; Respond may be called from concurrent
	// HTTP handlers and Signer implementations are not required to be
	// safe for concurrent use.
	mu sync.Mutex
}

// NewResponder validates the configuration and builds a responder.
func NewResponder(cfg ResponderConfig) (*Responder, error) {
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if cfg.CACert == nil {
		return nil, fmt.Errorf("CA certificate is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("status source is required")
	}
	if cfg.ResponderCert == nil {
		cfg.ResponderCert = cfg.CACert
	}
	if cfg.Validity == 0 {
		cfg.Validity = time.Hour
	}
	return &Responder{cfg: cfg}, nil
}

// Respond processes a parsed request and returns the DER response.
// Requests for another issuer are answered with status unknown.
func (r *Responder) Respond(req *Request) ([]byte, error) {
	if req == nil || len(req.CertificateIDs()) == 0 {
		return BuildErrorResponse(StatusMalformedRequest)
	}

	builder := NewResponseBuilder(r.cfg.ResponderCert, r.cfg.Signer)
	now := time.Now().UTC()
	nextUpdate := now.Add(r.cfg.Validity)

	for _, certID := range req.CertificateIDs() {
		info := r.lookup(certID)
		switch info.Status {
		case CertStatusGood:
			builder.AddGood(certID, now, nextUpdate)
		case CertStatusRevoked:
			builder.AddRevoked(certID, now, nextUpdate, info.RevocationTime, info.RevocationReason)
		default:
			builder.AddUnknown(certID, now, nextUpdate)
		}
	}

	if r.cfg.CopyNonce {
		if nonce, ok := req.Nonce(); ok && len(nonce) > 0 {
			builder.AddNonce(nonce)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return builder.Build()
}

// ServeRequest parses raw request bytes and responds. Malformed input
// yields a malformedRequest response rather than an error.
func (r *Responder) ServeRequest(reqData []byte) ([]byte, error) {
	req, err := ParseRequest(reqData)
	if err != nil {
		return BuildErrorResponse(StatusMalformedRequest)
	}
	return r.Respond(req)
}

// lookup resolves a CertID against the configured CA and source.
func (r *Responder) lookup(certID *CertID) StatusInfo {
	if !r.matchesIssuer(certID) {
		return StatusInfo{Status: CertStatusUnknown}
	}
	return r.cfg.Source.StatusForSerial(certID.SerialNumber)
}

// matchesIssuer recomputes the issuer hashes with the CertID's own hash
// algorithm and compares.
func (r *Responder) matchesIssuer(certID *CertID) bool {
	var h crypto.Hash
	switch {
	case certID.HashAlgorithm.Equal(oids.SHA1):
		h = crypto.SHA1
	case certID.HashAlgorithm.Equal(oids.SHA256):
		h = crypto.SHA256
	case certID.HashAlgorithm.Equal(oids.SHA384):
		h = crypto.SHA384
	case certID.HashAlgorithm.Equal(oids.SHA512):
		h = crypto.SHA512
	default:
		return false
	}

	nameDER, err := r.cfg.CACert.SubjectNameDER()
	if err != nil {
		return false
	}
	keyBits, err := r.cfg.CACert.PublicKeyBits()
	if err != nil {
		return false
	}
	return string(certID.IssuerNameHash) == string(digest(h, nameDER)) &&
		string(certID.IssuerKeyHash) == string(digest(h, keyBits))
}
