package asn1util

import (
	"bytes"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"
)

// der builds test input from byte groups.
func der(groups ...[]byte) []byte {
	var out []byte
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestU_Decode_SequenceTree(t *testing.T) {
	// SEQUENCE { INTEGER 5, OCTET STRING 01 02 }
	input := der(
		[]byte{0x30, 0x07},
		[]byte{0x02, 0x01, 0x05},
		[]byte{0x04, 0x02, 0x01, 0x02},
	)

	v, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Class != ClassUniversal || v.Tag != TagSequence || !v.Constructed {
		t.Errorf("unexpected root identification: %+v", v)
	}
	if !bytes.Equal(v.Full, input) {
		t.Errorf("root Full does not span the input")
	}
	if len(v.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(v.Children))
	}

	n, err := v.Children[0].Int64()
	if err != nil || n != 5 {
		t.Errorf("child 0 = (%d, %v), want 5", n, err)
	}
	if !bytes.Equal(v.Children[0].Full, input[2:5]) {
		t.Errorf("child Full is not a span of the original buffer")
	}
	oct, err := v.Children[1].OctetString()
	if err != nil || !bytes.Equal(oct, []byte{0x01, 0x02}) {
		t.Errorf("child 1 = (%x, %v)", oct, err)
	}
}

func TestU_Decode_MalformedInputs(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		kind  ErrorKind
	}{
		{"empty", nil, KindTruncated},
		{"single byte", []byte("1"), KindTruncated},
		{"length past buffer", []byte{0x30, 0x05, 0x02, 0x01}, KindTruncated},
		{"ends inside length", []byte{0x30, 0x82, 0x01}, KindTruncated},
		{"length field too wide", []byte{0x30, 0x85, 0x01, 0x02, 0x03, 0x04, 0x05, 0x00}, KindOverlongLength},
		{"reserved length ff", []byte{0x30, 0xff, 0x00}, KindOverlongLength},
		{"indefinite on primitive", []byte{0x02, 0x80, 0x01, 0x00, 0x00}, KindUnsupportedTag},
		{"indefinite without eoc", []byte{0x30, 0x80, 0x02, 0x01, 0x05}, KindTruncated},
		{"trailing data", []byte{0x02, 0x01, 0x05, 0x00}, KindOverlongLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("error = %v, want kind %v", err, tt.kind)
			}
		})
	}
}

func TestU_Decode_IndefiniteLength(t *testing.T) {
	// BER: SEQUENCE (indefinite) { INTEGER 5 } EOC
	input := []byte{0x30, 0x80, 0x02, 0x01, 0x05, 0x00, 0x00}
	v, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !v.Indefinite {
		t.Error("value not flagged indefinite")
	}
	if len(v.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(v.Children))
	}
	if !bytes.Equal(v.Full, input) {
		t.Errorf("Full must include end-of-contents octets")
	}

	// Canonical re-encode converts to definite length.
	want := []byte{0x30, 0x03, 0x02, 0x01, 0x05}
	if got := EncodeValue(v); !bytes.Equal(got, want) {
		t.Errorf("EncodeValue = %x, want %x", got, want)
	}
}

func TestU_Decode_NonMinimalLengthAccepted(t *testing.T) {
	// BER long form for a length that fits the short form.
	input := []byte{0x02, 0x81, 0x01, 0x2a}
	v, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	n, err := v.Int64()
	if err != nil || n != 42 {
		t.Errorf("Int64 = (%d, %v), want 42", n, err)
	}
}

func TestU_Integer_TwosComplement(t *testing.T) {
	tests := []struct {
		content []byte
		want    int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x00, 0x80}, 128},
		{[]byte{0x80}, -128},
		{[]byte{0xff}, -1},
		{[]byte{0xfe, 0x00}, -512},
	}
	for _, tt := range tests {
		v := Value{Tag: TagInteger, Content: tt.content}
		n, err := v.Int64()
		if err != nil {
			t.Fatalf("Int64(%x) failed: %v", tt.content, err)
		}
		if n != tt.want {
			t.Errorf("Int64(%x) = %d, want %d", tt.content, n, tt.want)
		}
	}
}

func TestU_Integer_ArbitraryPrecision(t *testing.T) {
	serial, ok := new(big.Int).SetString("318601422914101149693420017798940712227677", 10)
	if !ok {
		t.Fatal("bad test constant")
	}
	v := Value{Tag: TagInteger, Content: serial.Bytes()}
	got, err := v.Integer()
	if err != nil {
		t.Fatalf("Integer failed: %v", err)
	}
	if got.Cmp(serial) != 0 {
		t.Errorf("Integer = %s, want %s", got, serial)
	}

	if _, err := v.Int64(); !IsKind(err, KindIntegerOverflow) {
		t.Errorf("Int64 on wide INTEGER = %v, want integer overflow", err)
	}
}

func TestU_ObjectIdentifier(t *testing.T) {
	// id-pkix-ocsp-basic
	v := Value{Tag: TagOID, Content: []byte{0x2b, 0x06, 0x01, 0x05, 0x05, 0x07, 0x30, 0x01, 0x01}}
	oid, err := v.ObjectIdentifier()
	if err != nil {
		t.Fatalf("ObjectIdentifier failed: %v", err)
	}
	want := asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}
	if !oid.Equal(want) {
		t.Errorf("oid = %v, want %v", oid, want)
	}

	// 2.16.840.1.101.3.4.2.1 (first octet 0x60 encodes arcs 2.16)
	v = Value{Tag: TagOID, Content: []byte{0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01}}
	oid, err = v.ObjectIdentifier()
	if err != nil {
		t.Fatalf("ObjectIdentifier failed: %v", err)
	}
	if !oid.Equal(asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}) {
		t.Errorf("oid = %v, want 2.16.840.1.101.3.4.2.1", oid)
	}

	// Incomplete base-128 arc.
	v = Value{Tag: TagOID, Content: []byte{0x2b, 0x86}}
	if _, err := v.ObjectIdentifier(); !IsKind(err, KindTruncated) {
		t.Errorf("truncated arc error = %v", err)
	}
}

func TestU_BitString_StripsUnusedBitsOctet(t *testing.T) {
	v := Value{Tag: TagBitString, Content: []byte{0x00, 0xde, 0xad}}
	bits, err := v.BitString()
	if err != nil || !bytes.Equal(bits, []byte{0xde, 0xad}) {
		t.Errorf("BitString = (%x, %v)", bits, err)
	}

	v = Value{Tag: TagBitString, Content: []byte{0x08, 0x00}}
	if _, err := v.BitString(); err == nil {
		t.Error("expected error for 8 unused bits")
	}

	v = Value{Tag: TagBitString, Content: nil}
	if _, err := v.BitString(); !IsKind(err, KindTruncated) {
		t.Errorf("empty BIT STRING error = %v", err)
	}
}

func TestU_OctetString_BERConstructed(t *testing.T) {
	// Constructed OCTET STRING wrapping two primitive segments.
	input := []byte{
		0x24, 0x08,
		0x04, 0x02, 0xaa, 0xbb,
		0x04, 0x02, 0xcc, 0xdd,
	}
	v, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	got, err := v.OctetString()
	if err != nil || !bytes.Equal(got, []byte{0xaa, 0xbb, 0xcc, 0xdd}) {
		t.Errorf("OctetString = (%x, %v)", got, err)
	}
}

func TestU_Time(t *testing.T) {
	v := Value{Tag: TagGeneralizedTime, Content: []byte("20210917182524Z")}
	got, err := v.Time()
	if err != nil {
		t.Fatalf("Time failed: %v", err)
	}
	want := time.Date(2021, 9, 17, 18, 25, 24, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Time = %v, want %v", got, want)
	}

	v = Value{Tag: TagUTCTime, Content: []byte("210917182524Z")}
	got, err = v.Time()
	if err != nil || !got.Equal(want) {
		t.Errorf("UTCTime = (%v, %v), want %v", got, err, want)
	}

	v = Value{Tag: TagGeneralizedTime, Content: []byte("not a time")}
	if _, err := v.Time(); err == nil {
		t.Error("expected error for garbage time")
	}
}

func TestU_Text(t *testing.T) {
	v := Value{Tag: TagUTF8String, Content: []byte("Test CA")}
	if s, err := v.Text(); err != nil || s != "Test CA" {
		t.Errorf("Text = (%q, %v)", s, err)
	}

	v = Value{Tag: TagUTF8String, Content: []byte{0xff, 0xfe}}
	if _, err := v.Text(); !IsKind(err, KindUtf8Invalid) {
		t.Errorf("invalid UTF-8 error = %v", err)
	}

	v = Value{Tag: TagPrintableString, Content: []byte{0xc3, 0xa9}}
	if _, err := v.Text(); !IsKind(err, KindUtf8Invalid) {
		t.Errorf("non-ASCII PrintableString error = %v", err)
	}

	// "OK" as UCS-2.
	v = Value{Tag: TagBMPString, Content: []byte{0x00, 'O', 0x00, 'K'}}
	if s, err := v.Text(); err != nil || s != "OK" {
		t.Errorf("BMPString = (%q, %v)", s, err)
	}
}

func TestU_Expect_TagMismatch(t *testing.T) {
	v := Value{Class: ClassUniversal, Tag: TagInteger}
	if err := v.Expect(ClassUniversal, TagSequence); !IsKind(err, KindTagMismatch) {
		t.Errorf("Expect error = %v, want tag mismatch", err)
	}
}

func TestU_EncodeValue_RoundTrip(t *testing.T) {
	// A DER Name-like structure must re-encode byte-identically.
	input := der(
		[]byte{0x30, 0x10},
		[]byte{0x31, 0x0e},
		[]byte{0x30, 0x0c},
		[]byte{0x06, 0x03, 0x55, 0x04, 0x03}, // 2.5.4.3 commonName
		[]byte{0x0c, 0x05, 'a', 'l', 'i', 'c', 'e'},
	)
	v, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := EncodeValue(v); !bytes.Equal(got, input) {
		t.Errorf("EncodeValue = %x, want input unchanged", got)
	}
}

func TestU_EncodeValue_SortsSet(t *testing.T) {
	// SET with children out of DER order.
	v := &Value{
		Class: ClassUniversal, Tag: TagSet, Constructed: true,
		Children: []Value{
			{Class: ClassUniversal, Tag: TagOctetString, Content: []byte{0xff}},
			{Class: ClassUniversal, Tag: TagInteger, Content: []byte{0x01}},
		},
	}
	want := []byte{0x31, 0x06, 0x02, 0x01, 0x01, 0x04, 0x01, 0xff}
	if got := EncodeValue(v); !bytes.Equal(got, want) {
		t.Errorf("EncodeValue = %x, want %x", got, want)
	}
}

func TestU_AppendHeader_LongForm(t *testing.T) {
	got := AppendHeader(nil, ClassUniversal, TagSequence, true, 0x1234)
	want := []byte{0x30, 0x82, 0x12, 0x34}
	if !bytes.Equal(got, want) {
		t.Errorf("AppendHeader = %x, want %x", got, want)
	}

	got = AppendHeader(nil, ClassContextSpecific, 0, true, 3)
	if !bytes.Equal(got, []byte{0xa0, 0x03}) {
		t.Errorf("context header = %x", got)
	}
}
