package main

import (
	"crypto"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/go-ocsp/pkg/certutil"
	"github.com/remiblancher/go-ocsp/pkg/ocsp"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Encode a DER OCSP request",
	Long: `Encode a DER OCSP request for the given certificate(s).

The output can be POSTed to a responder with any HTTP client:

  ocspcheck request --cert server.crt --issuer ca.crt --out req.der
  curl --data-binary @req.der -H 'Content-Type: application/ocsp-request' \
      http://ocsp.example.com > resp.der`,
	RunE: runRequest,
}

var (
	requestCerts  []string
	requestIssuer string
	requestHash   string
	requestNonce  bool
	requestOut    string
)

func init() {
	requestCmd.Flags().StringArrayVar(&requestCerts, "cert", nil, "certificate to include (repeatable)")
	requestCmd.Flags().StringVar(&requestIssuer, "issuer", "", "issuer certificate (PEM or DER)")
	requestCmd.Flags().StringVar(&requestHash, "hash", "sha256", "CertID hash algorithm (sha1 or sha256)")
	requestCmd.Flags().BoolVar(&requestNonce, "nonce", false, "include a random nonce extension")
	requestCmd.Flags().StringVar(&requestOut, "out", "", "output file (default: stdout)")
	requestCmd.MarkFlagRequired("cert")
	requestCmd.MarkFlagRequired("issuer")
}

func runRequest(cmd *cobra.Command, args []string) error {
	issuer, err := certutil.FromFile(requestIssuer)
	if err != nil {
		return err
	}

	var hash crypto.Hash
	switch requestHash {
	case "sha1":
		hash = crypto.SHA1
	case "sha256":
		hash = crypto.SHA256
	default:
		return fmt.Errorf("unsupported hash %q (use sha1 or sha256)", requestHash)
	}

	req := ocsp.NewRequest()
	for _, path := range requestCerts {
		subject, err := certutil.FromFile(path)
		if err != nil {
			return err
		}
		certID, err := ocsp.GenerateCertID(subject, issuer, hash)
		if err != nil {
			return err
		}
		req.AddCertificateID(certID)
	}
	if requestNonce {
		nonce := make([]byte, nonceSize)
		if _, err := rand.Read(nonce); err != nil {
			return fmt.Errorf("could not generate nonce: %w", err)
		}
		req.AddNonce(nonce)
	}

	der, err := req.EncodeDER()
	if err != nil {
		return err
	}
	if requestOut == "" {
		_, err = os.Stdout.Write(der)
		return err
	}
	return os.WriteFile(requestOut, der, 0o644)
}
