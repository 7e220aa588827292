package ocsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/asn1"
	"strings"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
	"github.com/cloudflare/circl/sign/slhdsa"
	_ "golang.org/x/crypto/sha3"

	"github.com/remiblancher/go-ocsp/internal/oids"
	"github.com/remiblancher/go-ocsp/pkg/certutil"
)

// ValidateSignature verifies the responder signature over the
// tbsResponseData bytes exactly as received. The responder certificate
// is the first certificate embedded in the response; callers apply
// their own trust policy to it.
func (r *Response) ValidateSignature() error {
	basic, err := r.validateShape()
	if err != nil {
		return err
	}
	return verifySignature(basic.certs[0], basic.signatureAlgorithm, basic.tbsRaw, basic.signature)
}

// hashNames orders the probes so the SHA-3 names win over their SHA-2
// lookalikes.
var hashNames = []struct {
	substr string
	hash   crypto.Hash
}{
	{"sha3-256", crypto.SHA3_256},
	{"sha3-384", crypto.SHA3_384},
	{"sha3-512", crypto.SHA3_512},
	{"sha256", crypto.SHA256},
	{"sha384", crypto.SHA384},
	{"sha512", crypto.SHA512},
	{"sha1", crypto.SHA1},
}

// hashFromSignatureAlgorithm derives the digest function from the
// hash substring of the algorithm's symbolic name, for example
// "sha256WithRSAEncryption" -> SHA-256.
func hashFromSignatureAlgorithm(oid asn1.ObjectIdentifier) (crypto.Hash, error) {
	name := strings.ToLower(oids.Name(oid))
	for _, e := range hashNames {
		if strings.Contains(name, e.substr) {
			return e.hash, nil
		}
	}
	return 0, certutil.Errorf("Signature algorithm %s not implemented", oids.Name(oid))
}

func digest(h crypto.Hash, message []byte) []byte {
	hasher := h.New()
	hasher.Write(message)
	return hasher.Sum(nil)
}

// verifySignature checks signature over message with the certificate's
// public key, dispatching on the key type. Keys the standard library
// cannot parse (ML-DSA, SLH-DSA) are recovered from the certificate's
// SubjectPublicKeyInfo.
func verifySignature(cert *certutil.Certificate, sigAlg asn1.ObjectIdentifier, message, signature []byte) error {
	switch pub := cert.PublicKey().(type) {
	case *ecdsa.PublicKey:
		h, err := hashFromSignatureAlgorithm(sigAlg)
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(pub, digest(h, message), signature) {
			return verifyErrorf("OCSP response signature is not valid")
		}
		return nil

	case *rsa.PublicKey:
		h, err := hashFromSignatureAlgorithm(sigAlg)
		if err != nil {
			return err
		}
		if err := rsa.VerifyPKCS1v15(pub, h, digest(h, message), signature); err != nil {
			return verifyErrorf("OCSP response signature is not valid")
		}
		return nil

	case ed25519.PublicKey:
		if !ed25519.Verify(pub, message, signature) {
			return verifyErrorf("OCSP response signature is not valid")
		}
		return nil

	default:
		return verifyPQCSignature(cert, sigAlg, message, signature)
	}
}

// slhdsaIDs maps SPKI OIDs to SLH-DSA parameter sets.
var slhdsaIDs = []struct {
	oid asn1.ObjectIdentifier
	id  slhdsa.ID
}{
	{oids.SLHDSA128s, slhdsa.SHA2_128s},
	{oids.SLHDSA128f, slhdsa.SHA2_128f},
	{oids.SLHDSA192s, slhdsa.SHA2_192s},
	{oids.SLHDSA192f, slhdsa.SHA2_192f},
	{oids.SLHDSA256s, slhdsa.SHA2_256s},
	{oids.SLHDSA256f, slhdsa.SHA2_256f},
}

// verifyPQCSignature handles key algorithms crypto/x509 leaves
// unparsed: the key is rebuilt from the raw SubjectPublicKeyInfo bits.
func verifyPQCSignature(cert *certutil.Certificate, sigAlg asn1.ObjectIdentifier, message, signature []byte) error {
	keyAlg, err := cert.SPKIAlgorithm()
	if err != nil {
		return err
	}
	bits, err := cert.PublicKeyBits()
	if err != nil {
		return err
	}

	switch {
	case keyAlg.Equal(oids.MLDSA44):
		var pub mldsa44.PublicKey
		if err := pub.UnmarshalBinary(bits); err != nil {
			return certutil.Errorf("could not parse ML-DSA-44 public key")
		}
		if !mldsa44.Verify(&pub, message, nil, signature) {
			return verifyErrorf("OCSP response signature is not valid")
		}
		return nil

	case keyAlg.Equal(oids.MLDSA65):
		var pub mldsa65.PublicKey
		if err := pub.UnmarshalBinary(bits); err != nil {
			return certutil.Errorf("could not parse ML-DSA-65 public key")
		}
		if !mldsa65.Verify(&pub, message, nil, signature) {
			return verifyErrorf("OCSP response signature is not valid")
		}
		return nil

	case keyAlg.Equal(oids.MLDSA87):
		var pub mldsa87.PublicKey
		if err := pub.UnmarshalBinary(bits); err != nil {
			return certutil.Errorf("could not parse ML-DSA-87 public key")
		}
		if !mldsa87.Verify(&pub, message, nil, signature) {
			return verifyErrorf("OCSP response signature is not valid")
		}
		return nil
	}

	for _, e := range slhdsaIDs {
		if !keyAlg.Equal(e.oid) {
			continue
		}
		var pub slhdsa.PublicKey
		pub.ID = e.id
		if err := pub.UnmarshalBinary(bits); err != nil {
			return certutil.Errorf("could not parse %s public key", oids.Name(e.oid))
		}
		msg := slhdsa.NewMessage(message)
		if !slhdsa.Verify(&pub, msg, signature, nil) {
			return verifyErrorf("OCSP response signature is not valid")
		}
		return nil
	}

	return certutil.Errorf("Signature algorithm %s not implemented", oids.Name(sigAlg))
}

// ValidateNonce checks that the response echoes the request nonce. A
// request without a nonce always validates.
func ValidateNonce(req *Request, resp *Response) error {
	reqNonce, ok := req.Nonce()
	if !ok {
		return nil
	}
	basic, err := resp.BasicResponse()
	if err != nil {
		return err
	}
	respNonce, ok := basic.Nonce()
	if !ok {
		return verifyErrorf("request contains nonce but response does not")
	}
	if string(reqNonce) != string(respNonce) {
		return verifyErrorf("response nonce does not match request nonce")
	}
	return nil
}
