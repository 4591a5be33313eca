package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mcparam/internal/logging"
)

// selfSignedValidity bounds the lifetime of a generated bench certificate
const selfSignedValidity = 30 * 24 * time.Hour

// NewTLSConfig loads the tuning link's certificate from PEM files
func NewTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	logging.Info("TLS certificate loaded",
		zap.String("cert", certPath),
		zap.String("key", keyPath),
	)
	return linkTLSConfig(cert), nil
}

// SelfSignedTLSConfig generates an ephemeral ECDSA certificate for hosts.
// Clients must skip verification (mcparam-cfg --insecure) to connect.
func SelfSignedTLSConfig(hosts ...string) (*tls.Config, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial: %w", err)
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "mcparam-server", Organization: []string{"mcparam"}},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.Add(selfSignedValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else if h != "" {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	logging.Warn("Using a self-signed certificate",
		zap.Strings("hosts", hosts),
		zap.Time("expires", tmpl.NotAfter),
	)
	return linkTLSConfig(tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}), nil
}

func linkTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,

		VerifyConnection: func(cs tls.ConnectionState) error {
			logging.LogTLSHandshake(cs.Version, cs.CipherSuite, cs.ServerName)
			return nil
		},
	}
}

// tlsInfo summarizes config for the startup log
func tlsInfo(config *tls.Config) map[string]any {
	if config == nil {
		return map[string]any{"enabled": false}
	}
	info := map[string]any{
		"enabled":     true,
		"min_version": tls.VersionName(config.MinVersion),
	}
	if len(config.Certificates) > 0 && len(config.Certificates[0].Certificate) > 0 {
		if leaf, err := x509.ParseCertificate(config.Certificates[0].Certificate[0]); err == nil {
			info["subject"] = leaf.Subject.CommonName
			info["expires"] = leaf.NotAfter.Format(time.RFC3339)
		}
	}
	return info
}
