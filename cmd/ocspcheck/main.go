// Command ocspcheck builds OCSP requests, queries responders, and
// inspects responses (RFC 6960).
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
)

var verbose bool

// osExit is swapped out in tests.
var osExit = os.Exit

var rootCmd = &cobra.Command{
	Use:   "ocspcheck",
	Short: "OCSP client and test responder (RFC 6960)",
	Long: `ocspcheck checks the revocation status of X.509 certificates over OCSP.

This command provides:
  - check:   Query a responder and validate its answer
  - request: Encode a DER OCSP request for external transports
  - inspect: Decode and display an OCSP response
  - serve:   Run a test OCSP responder from a YAML revocation table

Examples:
  # Check a certificate against the responder in its AIA extension
  ocspcheck check --cert server.crt --issuer ca.crt

  # Check against a specific responder with a nonce
  ocspcheck check --cert server.crt --issuer ca.crt --url http://ocsp.example.com --nonce

  # Encode a request for use with curl
  ocspcheck request --cert server.crt --issuer ca.crt --out req.der

  # Decode a stored response
  ocspcheck inspect response.der`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger builds the CLI logger: console output on stderr, debug
// level with --verbose.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)
}
