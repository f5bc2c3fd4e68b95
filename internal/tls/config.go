package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	ErrCertNotFound    = errors.New("certificate file not found")
	ErrKeyNotFound     = errors.New("key file not found")
	ErrCertInvalid     = errors.New("certificate invalid")
	ErrCertExpired     = errors.New("certificate expired")
	ErrCertNotYetValid = errors.New("certificate not yet valid")
	ErrCANotFound      = errors.New("CA certificate not found")
	ErrCAInvalid       = errors.New("CA certificate invalid")
	ErrNoCertificates  = errors.New("no certificates in file")
)

// ServerFiles names the PEM files the bridge server is started with.
type ServerFiles struct {
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

// LoadServerTLSConfig builds the listener TLS config. A client CA turns on
// mutual TLS: callers must present a certificate that chains to it.
func LoadServerTLSConfig(files ServerFiles) (*tls.Config, error) {
	if files.CertFile == "" {
		return nil, ErrCertNotFound
	}
	if files.KeyFile == "" {
		return nil, ErrKeyNotFound
	}

	if err := ValidateCertificate(files.CertFile); err != nil {
		return nil, err
	}

	cert, err := LoadCertificate(files.CertFile, files.KeyFile)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{*cert},
	}

	if files.ClientCAFile != "" {
		pool, err := LoadCAPool(files.ClientCAFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return tlsConfig, nil
}

// LoadCertificate loads a certificate and key from files.
func LoadCertificate(certFile, keyFile string) (*tls.Certificate, error) {
	if _, err := os.Stat(certFile); os.IsNotExist(err) {
		return nil, ErrCertNotFound
	}
	if _, err := os.Stat(keyFile); os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertInvalid, err)
	}
	return &cert, nil
}

// LoadCAPool loads a CA certificate pool from a file.
func LoadCAPool(caFile string) (*x509.CertPool, error) {
	data, err := os.ReadFile(filepath.Clean(caFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCANotFound
		}
		return nil, fmt.Errorf("read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, ErrCAInvalid
	}
	return pool, nil
}

// ValidateCertificate checks that the leaf certificate in certFile is
// currently within its validity window.
func ValidateCertificate(certFile string) error {
	return validateAt(certFile, time.Now())
}

func validateAt(certFile string, now time.Time) error {
	data, err := os.ReadFile(filepath.Clean(certFile))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCertNotFound
		}
		return err
	}

	certs, err := ParseCertificates(data)
	if err != nil {
		return err
	}
	if len(certs) == 0 {
		return ErrNoCertificates
	}

	leaf := certs[0]
	if now.Before(leaf.NotBefore) {
		return ErrCertNotYetValid
	}
	if now.After(leaf.NotAfter) {
		return ErrCertExpired
	}
	return nil
}

// ParseCertificates parses every CERTIFICATE block in pemData, skipping keys
// and other block types.
func ParseCertificates(pemData []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCertInvalid, err)
		}
		certs = append(certs, cert)
	}

	return certs, nil
}

// ExpiresIn reports the time left before the leaf certificate expires.
// The serve command logs it at startup.
func ExpiresIn(certFile string) (time.Duration, error) {
	data, err := os.ReadFile(filepath.Clean(certFile))
	if err != nil {
		return 0, err
	}
	certs, err := ParseCertificates(data)
	if err != nil {
		return 0, err
	}
	if len(certs) == 0 {
		return 0, ErrNoCertificates
	}
	return time.Until(certs[0].NotAfter), nil
}
