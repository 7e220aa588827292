// Package oids maps the object identifiers used by OCSP and X.509
// between dotted-decimal form and the symbolic names this library uses
// internally. The table is embedded as package state built at program
// start and is immutable afterwards, so lookups need no synchronization.
package oids

import "encoding/asn1"

// OCSP OIDs per RFC 6960.
var (
	// id-ad-ocsp OBJECT IDENTIFIER ::= { iso(1) identified-organization(3)
	//   dod(6) internet(1) security(5) mechanisms(5) pkix(7) ad(48) 1 }
	// id-pkix-ocsp OBJECT IDENTIFIER ::= { id-ad-ocsp }
	PKIXOcsp = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1}

	// id-pkix-ocsp-basic OBJECT IDENTIFIER ::= { id-pkix-ocsp 1 }
	OcspBasic = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}

	// id-pkix-ocsp-nonce OBJECT IDENTIFIER ::= { id-pkix-ocsp 2 }
	OcspNonce = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 2}
)

// Access descriptor OIDs per RFC 5280 §4.2.2.1.
var (
	AuthorityInfoAccess = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}
	ADOcsp              = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1}
	ADCAIssuers         = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 2}
)

// Hash algorithm OIDs.
var (
	SHA1    = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	SHA256  = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	SHA384  = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	SHA512  = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
	SHA3256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 8}
	SHA3384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 9}
	SHA3512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 10}
)

// Signature algorithm OIDs.
var (
	SHA1WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	SHA256WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	SHA384WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	SHA512WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}

	ECDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}
	ECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	ECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	ECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}

	ECDSAWithSHA3256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 10}
	ECDSAWithSHA3384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 11}
	ECDSAWithSHA3512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 12}

	RSAWithSHA3256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 14}
	RSAWithSHA3384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 15}
	RSAWithSHA3512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 16}

	Ed25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

	// ML-DSA (FIPS 204)
	MLDSA44 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 17}
	MLDSA65 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 18}
	MLDSA87 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 19}

	// SLH-DSA (FIPS 205), SHA2 parameter sets
	SLHDSA128s = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 20}
	SLHDSA128f = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 21}
	SLHDSA192s = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 22}
	SLHDSA192f = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 23}
	SLHDSA256s = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 24}
	SLHDSA256f = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 25}
)

type entry struct {
	oid  asn1.ObjectIdentifier
	name string
}

// table is the authoritative name list. Aliases follow the primary name
// for the same OID; reverse lookup keeps the first entry.
var table = []entry{
	{PKIXOcsp, "id-pkix-ocsp"},
	{PKIXOcsp, "id-ad-ocsp"},
	{OcspBasic, "id-pkix-ocsp-basic"},
	{OcspNonce, "id-pkix-ocsp-nonce"},
	{AuthorityInfoAccess, "id-pe-authorityInfoAccess"},
	{AuthorityInfoAccess, "id-ce-authorityInfoAccess"},
	{ADCAIssuers, "id-ad-caIssuers"},

	{SHA1, "id-sha1"},
	{SHA256, "id-sha256"},
	{SHA384, "id-sha384"},
	{SHA512, "id-sha512"},
	{SHA3256, "id-sha3-256"},
	{SHA3384, "id-sha3-384"},
	{SHA3512, "id-sha3-512"},

	{SHA1WithRSA, "sha1WithRSAEncryption"},
	{SHA256WithRSA, "sha256WithRSAEncryption"},
	{SHA384WithRSA, "sha384WithRSAEncryption"},
	{SHA512WithRSA, "sha512WithRSAEncryption"},
	{ECDSAWithSHA1, "ecdsa-with-SHA1"},
	{ECDSAWithSHA256, "ecdsa-with-SHA256"},
	{ECDSAWithSHA384, "ecdsa-with-SHA384"},
	{ECDSAWithSHA512, "ecdsa-with-SHA512"},
	{ECDSAWithSHA3256, "id-ecdsa-with-sha3-256"},
	{ECDSAWithSHA3384, "id-ecdsa-with-sha3-384"},
	{ECDSAWithSHA3512, "id-ecdsa-with-sha3-512"},
	{RSAWithSHA3256, "id-rsassa-pkcs1-v1_5-with-sha3-256"},
	{RSAWithSHA3384, "id-rsassa-pkcs1-v1_5-with-sha3-384"},
	{RSAWithSHA3512, "id-rsassa-pkcs1-v1_5-with-sha3-512"},
	{Ed25519, "id-Ed25519"},

	{MLDSA44, "id-ml-dsa-44"},
	{MLDSA65, "id-ml-dsa-65"},
	{MLDSA87, "id-ml-dsa-87"},
	{SLHDSA128s, "id-slh-dsa-sha2-128s"},
	{SLHDSA128f, "id-slh-dsa-sha2-128f"},
	{SLHDSA192s, "id-slh-dsa-sha2-192s"},
	{SLHDSA192f, "id-slh-dsa-sha2-192f"},
	{SLHDSA256s, "id-slh-dsa-sha2-256s"},
	{SLHDSA256f, "id-slh-dsa-sha2-256f"},
}

var (
	byDotted = make(map[string]string, len(table))
	byName   = make(map[string]asn1.ObjectIdentifier, len(table))
)

func init() {
	for _, e := range table {
		dotted := e.oid.String()
		if _, ok := byDotted[dotted]; !ok {
			byDotted[dotted] = e.name
		}
		byName[e.name] = e.oid
	}
}

// Name returns the symbolic name for oid, or its dotted-decimal form
// when the OID is not registered.
func Name(oid asn1.ObjectIdentifier) string {
	if name, ok := byDotted[oid.String()]; ok {
		return name
	}
	return oid.String()
}

// Lookup resolves a symbolic name back to its OID.
func Lookup(name string) (asn1.ObjectIdentifier, bool) {
	oid, ok := byName[name]
	return oid, ok
}
