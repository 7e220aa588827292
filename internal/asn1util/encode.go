package asn1util

import (
	"bytes"
	"sort"
)

// EncodeValue re-serializes a decoded value as canonical DER: definite
// minimal-length headers throughout, indefinite-length input converted,
// and SET children sorted by their encoding. Primitive content octets
// are preserved as decoded, so a value decoded from DER re-encodes to
// the identical bytes.
func EncodeValue(v *Value) []byte {
	return appendValue(nil, v)
}

func appendValue(dst []byte, v *Value) []byte {
	var content []byte
	if v.Constructed {
		if v.Class == ClassUniversal && v.Tag == TagSet {
			encs := make([][]byte, len(v.Children))
			for i := range v.Children {
				encs[i] = appendValue(nil, &v.Children[i])
			}
			sort.Slice(encs, func(i, j int) bool { return bytes.Compare(encs[i], encs[j]) < 0 })
			for _, e := range encs {
				content = append(content, e...)
			}
		} else {
			for i := range v.Children {
				content = appendValue(content, &v.Children[i])
			}
		}
	} else {
		content = v.Content
	}
	dst = AppendHeader(dst, v.Class, v.Tag, v.Constructed, len(content))
	return append(dst, content...)
}

// AppendHeader appends a DER identifier and definite minimal length.
func AppendHeader(dst []byte, class, tag int, constructed bool, length int) []byte {
	ident := byte(class << 6)
	if constructed {
		ident |= 0x20
	}
	if tag < 0x1f {
		dst = append(dst, ident|byte(tag))
	} else {
		dst = append(dst, ident|0x1f)
		var stack [4]byte
		n := 0
		for t := tag; t > 0; t >>= 7 {
			stack[n] = byte(t & 0x7f)
			n++
		}
		for i := n - 1; i >= 0; i-- {
			b := stack[i]
			if i > 0 {
				b |= 0x80
			}
			dst = append(dst, b)
		}
	}
	if length < 0x80 {
		return append(dst, byte(length))
	}
	var stack [4]byte
	n := 0
	for l := length; l > 0; l >>= 8 {
		stack[n] = byte(l)
		n++
	}
	dst = append(dst, 0x80|byte(n))
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, stack[i])
	}
	return dst
}
