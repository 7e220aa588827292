package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/go-ocsp/pkg/ocsp"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <response-file>",
	Short: "Decode and display an OCSP response",
	Long: `Decode a stored DER OCSP response and print its contents.

Signature verification uses the responder certificate embedded in the
response and can be skipped with --no-verify.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectNoVerify bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectNoVerify, "no-verify", false, "skip signature verification")
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not read response file %s: %w", args[0], err)
	}

	resp, err := ocsp.ParseResponse(data)
	if err != nil {
		return err
	}
	fmt.Printf("Response status: %s\n", resp.Status())
	if resp.Status() != ocsp.StatusSuccessful {
		return nil
	}

	basic, err := resp.BasicResponse()
	if err != nil {
		return err
	}
	fmt.Printf("Signature algorithm: %s\n", basic.SignatureAlgorithm())
	fmt.Printf("Produced at: %s\n", basic.ProducedAt().Format(time.RFC3339))

	for i, single := range basic.Responses() {
		fmt.Printf("Response %d:\n", i)
		fmt.Printf("  Serial: %s\n", single.CertID.SerialNumber.Text(16))
		fmt.Printf("  Hash algorithm: %s\n", single.CertID.HashAlgorithmName())
		fmt.Printf("  Issuer name hash: %s\n", hex.EncodeToString(single.CertID.IssuerNameHash))
		fmt.Printf("  Issuer key hash: %s\n", hex.EncodeToString(single.CertID.IssuerKeyHash))
		fmt.Printf("  Status: %s\n", single.Status)
		if single.Status == ocsp.CertStatusRevoked {
			fmt.Printf("  Revoked at: %s\n", single.RevocationTime.Format(time.RFC3339))
			if single.HasRevocationReason {
				fmt.Printf("  Reason: %s\n", single.RevocationReason)
			}
		}
		fmt.Printf("  This update: %s\n", single.ThisUpdate.Format(time.RFC3339))
		if !single.NextUpdate.IsZero() {
			fmt.Printf("  Next update: %s\n", single.NextUpdate.Format(time.RFC3339))
		}
	}

	if nonce, ok := basic.Nonce(); ok {
		fmt.Printf("Nonce: %s\n", hex.EncodeToString(nonce))
	}
	for i, cert := range basic.Certificates() {
		fmt.Printf("Certificate %d: %s (serial %s)\n",
			i, cert.X509().Subject, cert.SerialNumber().Text(16))
	}

	if !inspectNoVerify {
		if err := resp.ValidateSignature(); err != nil {
			return err
		}
		fmt.Println("Signature: valid")
	}
	return nil
}
