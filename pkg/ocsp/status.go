package ocsp

import "fmt"

// ResponseStatus is the OCSPResponseStatus enumeration (RFC 6960 §4.2.1).
type ResponseStatus int

const (
	StatusSuccessful       ResponseStatus = 0
	StatusMalformedRequest ResponseStatus = 1
	StatusInternalError    ResponseStatus = 2
	StatusTryLater         ResponseStatus = 3
	// 4 is not used
	StatusSigRequired  ResponseStatus = 5
	StatusUnauthorized ResponseStatus = 6
)

// String returns a human-readable status string.
func (s ResponseStatus) String() string {
	switch s {
	case StatusSuccessful:
		return "successful"
	case StatusMalformedRequest:
		return "malformedRequest"
	case StatusInternalError:
		return "internalError"
	case StatusTryLater:
		return "tryLater"
	case StatusSigRequired:
		return "sigRequired"
	case StatusUnauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CertStatus is the certStatus CHOICE of a SingleResponse.
type CertStatus int

const (
	CertStatusGood    CertStatus = 0
	CertStatusRevoked CertStatus = 1
	CertStatusUnknown CertStatus = 2
)

// String returns a human-readable status string.
func (s CertStatus) String() string {
	switch s {
	case CertStatusGood:
		return "good"
	case CertStatusRevoked:
		return "revoked"
	case CertStatusUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// RevocationReason is a CRLReason per RFC 5280 §5.3.1.
type RevocationReason int

const (
	ReasonUnspecified          RevocationReason = 0
	ReasonKeyCompromise        RevocationReason = 1
	ReasonCACompromise         RevocationReason = 2
	ReasonAffiliationChanged   RevocationReason = 3
	ReasonSuperseded           RevocationReason = 4
	ReasonCessationOfOperation RevocationReason = 5
	ReasonCertificateHold      RevocationReason = 6
	// 7 is not used
	ReasonRemoveFromCRL      RevocationReason = 8
	ReasonPrivilegeWithdrawn RevocationReason = 9
	ReasonAACompromise       RevocationReason = 10
)

// String returns the symbolic reason name, or unknown(N) for values
// outside the RFC 5280 table.
func (r RevocationReason) String() string {
	switch r {
	case ReasonUnspecified:
		return "unspecified"
	case ReasonKeyCompromise:
		return "keyCompromise"
	case ReasonCACompromise:
		return "cACompromise"
	case ReasonAffiliationChanged:
		return "affiliationChanged"
	case ReasonSuperseded:
		return "superseded"
	case ReasonCessationOfOperation:
		return "cessationOfOperation"
	case ReasonCertificateHold:
		return "certificateHold"
	case ReasonRemoveFromCRL:
		return "removeFromCRL"
	case ReasonPrivilegeWithdrawn:
		return "privilegeWithdrawn"
	case ReasonAACompromise:
		return "aACompromise"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}
