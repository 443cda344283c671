package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"log"
	"os"
	"path/filepath"
)

// Initialize scaffolds a configuration directory, creating anything
// that's missing and leaving existing files alone. It returns the
// loaded configuration.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(dir, StateDirName), 0700); err != nil {
		return nil, err
	}

	if err := writeIfMissing(logger, filepath.Join(dir, ConfigurationName), defaultConfigData); err != nil {
		return nil, err
	}

	keyPath := filepath.Join(dir, HostKeyName)
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		logger.Printf("Generating SSH host key %s", keyPath)
		keyPem, err := generateHostKey()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(keyPath, keyPem, 0600); err != nil {
			return nil, err
		}
	} else {
		logger.Printf("Found existing %s", keyPath)
	}

	return Load(dir)
}

func writeIfMissing(logger *log.Logger, path string, contents []byte) error {
	if _, err := os.Stat(path); err == nil {
		logger.Printf("Found existing %s", path)
		return nil
	}
	logger.Printf("Creating %s", path)
	return os.WriteFile(path, contents, 0600)
}

// generateHostKey creates an ed25519 private key in PKCS#8 PEM form,
// the format x/crypto's ssh.ParsePrivateKey accepts.
func generateHostKey() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
