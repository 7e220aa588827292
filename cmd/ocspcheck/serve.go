package main

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/remiblancher/go-ocsp/pkg/certutil"
	"github.com/remiblancher/go-ocsp/pkg/config"
	"github.com/remiblancher/go-ocsp/pkg/ocsp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a test OCSP responder",
	Long: `Run an HTTP OCSP responder backed by a YAML revocation table.

The server answers RFC 6960 GET and POST requests. Serials listed in
the configuration are answered with their pinned status; all others are
unknown (or good, with assume_good: true).

Example configuration:

  listen: ":8080"
  ca_cert: ca.crt
  responder_cert: responder.crt
  responder_key: responder.key
  validity: 1h
  copy_nonce: true
  entries:
    - serial: "0a1b2c"
      status: revoked
      revoked_at: 2024-01-15T10:00:00Z
      reason: keyCompromise`,
	RunE: runServe,
}

var serveConfig string

func init() {
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "responder.yaml", "configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return err
	}
	logger := serverLogger(cfg)

	caCert, err := certutil.FromFile(cfg.CACert)
	if err != nil {
		return err
	}
	responderCert := caCert
	if cfg.ResponderCert != "" {
		responderCert, err = certutil.FromFile(cfg.ResponderCert)
		if err != nil {
			return err
		}
	}
	signer, err := loadSigner(cfg.ResponderKey)
	if err != nil {
		return err
	}

	source, err := buildSource(cfg)
	if err != nil {
		return err
	}
	responder, err := ocsp.NewResponder(ocsp.ResponderConfig{
		CACert:        caCert,
		ResponderCert: responderCert,
		Signer:        signer,
		Source:        source,
		Validity:      cfg.ValidityDuration(),
		CopyNonce:     cfg.CopyNonce,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           responder.Handler(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Shut down cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("listen", cfg.Listen).Msg("OCSP responder listening")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serverLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	if cfg.LogFormat == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

// buildSource turns the config entries into a static source.
func buildSource(cfg *config.Config) (ocsp.Source, error) {
	source := ocsp.NewStaticSource()
	source.AssumeGood = cfg.AssumeGood
	for i, e := range cfg.Entries {
		serial, err := ocsp.ParseSerialHex(e.Serial)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		status, err := ocsp.ParseCertStatus(e.Status)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		info := ocsp.StatusInfo{Status: status}
		if status == ocsp.CertStatusRevoked {
			info.RevocationTime, err = ocsp.ParseRevocationTime(e.RevokedAt)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			if e.Reason != "" {
				info.RevocationReason, err = ocsp.ParseRevocationReason(e.Reason)
				if err != nil {
					return nil, fmt.Errorf("entry %d: %w", i, err)
				}
			}
		}
		source.Add(serial, info)
	}
	return source, nil
}

// loadSigner reads a PEM private key: PKCS#8, SEC 1 EC, or PKCS#1 RSA.
func loadSigner(path string) (crypto.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read key file %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in key file %s", path)
	}

	var key any
	switch block.Type {
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM type %q in key file %s", block.Type, path)
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse key file %s: %w", path, err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("key in %s does not support signing", path)
	}
	return signer, nil
}
