package oids

import (
	"encoding/asn1"
	"testing"
)

func TestU_Name_Registered(t *testing.T) {
	tests := []struct {
		oid  asn1.ObjectIdentifier
		want string
	}{
		{OcspBasic, "id-pkix-ocsp-basic"},
		{OcspNonce, "id-pkix-ocsp-nonce"},
		{SHA1, "id-sha1"},
		{SHA256, "id-sha256"},
		{SHA256WithRSA, "sha256WithRSAEncryption"},
		{ECDSAWithSHA256, "ecdsa-with-SHA256"},
		{MLDSA65, "id-ml-dsa-65"},
	}
	for _, tt := range tests {
		if got := Name(tt.oid); got != tt.want {
			t.Errorf("Name(%v) = %q, want %q", tt.oid, got, tt.want)
		}
	}
}

func TestU_Name_UnknownFallsBackToDotted(t *testing.T) {
	oid := asn1.ObjectIdentifier{1, 2, 3, 4, 5}
	if got := Name(oid); got != "1.2.3.4.5" {
		t.Errorf("Name = %q, want dotted form", got)
	}
}

func TestU_Lookup(t *testing.T) {
	oid, ok := Lookup("id-pkix-ocsp-nonce")
	if !ok || !oid.Equal(OcspNonce) {
		t.Errorf("Lookup nonce = (%v, %v)", oid, ok)
	}

	// Alias names resolve, but the primary name wins reverse lookup.
	oid, ok = Lookup("id-ce-authorityInfoAccess")
	if !ok || !oid.Equal(AuthorityInfoAccess) {
		t.Errorf("Lookup alias = (%v, %v)", oid, ok)
	}
	if got := Name(AuthorityInfoAccess); got != "id-pe-authorityInfoAccess" {
		t.Errorf("Name(AIA) = %q, want primary name", got)
	}

	if _, ok := Lookup("no-such-name"); ok {
		t.Error("Lookup of unknown name should fail")
	}
}
