package main

import (
	"context"
	"crypto"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/go-ocsp/pkg/certutil"
	"github.com/remiblancher/go-ocsp/pkg/ocsp"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Query a responder and validate its answer",
	Long: `Query an OCSP responder for the status of a certificate.

The responder URL defaults to the one in the certificate's Authority
Information Access extension. The response's certificate ID and
signature are validated before the status is reported; the nonce is
cross-checked when --nonce is given.

The exit code is 0 for good, 2 for revoked, and 3 for unknown.`,
	RunE: runCheck,
}

var (
	checkCert    string
	checkIssuer  string
	checkURL     string
	checkHash    string
	checkNonce   bool
	checkTimeout time.Duration
)

func init() {
	checkCmd.Flags().StringVar(&checkCert, "cert", "", "certificate to check (PEM or DER)")
	checkCmd.Flags().StringVar(&checkIssuer, "issuer", "", "issuer certificate (PEM or DER)")
	checkCmd.Flags().StringVar(&checkURL, "url", "", "responder URL (default: AIA extension)")
	checkCmd.Flags().StringVar(&checkHash, "hash", "sha256", "CertID hash algorithm (sha1 or sha256)")
	checkCmd.Flags().BoolVar(&checkNonce, "nonce", false, "send a random nonce and require it echoed")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", ocsp.DefaultQueryTimeout, "query timeout")
	checkCmd.MarkFlagRequired("cert")
	checkCmd.MarkFlagRequired("issuer")
}

// nonceSize follows RFC 9654's recommended nonce length.
const nonceSize = 32

func runCheck(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	subject, err := certutil.FromFile(checkCert)
	if err != nil {
		return err
	}
	issuer, err := certutil.FromFile(checkIssuer)
	if err != nil {
		return err
	}

	var hash crypto.Hash
	switch checkHash {
	case "sha1":
		hash = crypto.SHA1
	case "sha256":
		hash = crypto.SHA256
	default:
		return fmt.Errorf("unsupported hash %q (use sha1 or sha256)", checkHash)
	}

	url := checkURL
	if url == "" {
		url = subject.OCSPResponderURL()
		if url == "" {
			return fmt.Errorf("certificate has no OCSP responder URL; use --url")
		}
	}
	logger.Debug().Str("url", url).Msg("querying responder")

	certID, err := ocsp.GenerateCertID(subject, issuer, hash)
	if err != nil {
		return err
	}
	req := ocsp.NewRequest()
	req.AddCertificateID(certID)
	if checkNonce {
		nonce := make([]byte, nonceSize)
		if _, err := rand.Read(nonce); err != nil {
			return fmt.Errorf("could not generate nonce: %w", err)
		}
		req.AddNonce(nonce)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()
	client := &ocsp.Client{}
	resp, err := client.Query(ctx, url, req)
	if err != nil {
		return err
	}

	if resp.Status() != ocsp.StatusSuccessful {
		return fmt.Errorf("responder answered with status %s", resp.Status())
	}
	if err := resp.ValidateCertificateID(certID); err != nil {
		return err
	}
	if err := resp.ValidateSignature(); err != nil {
		return err
	}
	if checkNonce {
		if err := ocsp.ValidateNonce(req, resp); err != nil {
			return err
		}
	}

	basic, err := resp.BasicResponse()
	if err != nil {
		return err
	}
	logger.Debug().
		Str("signature_algorithm", basic.SignatureAlgorithm()).
		Time("produced_at", basic.ProducedAt()).
		Msg("response validated")

	revoked, known, err := resp.IsRevoked()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	switch {
	case !known:
		fmt.Println("unknown: responder has no status for this certificate")
		osExit(3)
	case revoked:
		reason := resp.RevokeReason()
		if reason == "" {
			fmt.Println("revoked")
		} else {
			fmt.Printf("revoked (%s)\n", reason)
		}
		osExit(2)
	default:
		fmt.Println("good")
	}
	return nil
}
