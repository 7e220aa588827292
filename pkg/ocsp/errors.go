package ocsp

import (
	"fmt"

	"github.com/remiblancher/go-ocsp/pkg/certutil"
)

// CertificateError is re-exported so callers handle every error kind of
// this library from one package.
type CertificateError = certutil.CertificateError

// ResponseDecodeError reports an OCSP response whose outer envelope
// could not be decoded.
type ResponseDecodeError struct {
	Err error
}

func (e *ResponseDecodeError) Error() string { return "Could not decode OCSP response" }

func (e *ResponseDecodeError) Unwrap() error { return e.Err }

// VerifyError reports a response that decoded but failed an integrity
// check: CertID mismatch, bad cardinality, missing responder
// certificate, or an invalid signature.
type VerifyError struct {
	Msg string
}

func (e *VerifyError) Error() string { return e.Msg }

func verifyErrorf(format string, args ...any) *VerifyError {
	return &VerifyError{Msg: fmt.Sprintf(format, args...)}
}

// UnexpectedValueError reports a well-formed response carrying a value
// this library cannot work with, such as a non-basic responseType.
type UnexpectedValueError struct {
	Msg string
}

func (e *UnexpectedValueError) Error() string { return e.Msg }

func unexpectedValuef(format string, args ...any) *UnexpectedValueError {
	return &UnexpectedValueError{Msg: fmt.Sprintf(format, args...)}
}
