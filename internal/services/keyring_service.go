package services

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
	"go.uber.org/zap"
)

const (
	serviceName     = "whichmodel"
	backendTokenKey = "backend-token"
)

func GetOS() string {
	return runtime.GOOS
}

// KeyringService keeps the backend access token in the OS credential store.
// The keyring is opened lazily on first use.
type KeyringService struct {
	open func() (keyring.Keyring, error)
	log  *zap.Logger

	mu   sync.Mutex
	ring keyring.Keyring
}

// NewKeyringService opens the system keyring. backend restricts it to one
// keyring backend (for example "keychain", "secret-service", "wincred", "file").
func NewKeyringService(backend string, log *zap.Logger) *KeyringService {
	cfg := keyring.Config{
		ServiceName:              serviceName,
		KeychainName:             serviceName,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  serviceName,
		FileDir:                  "~/.whichmodel/keys",
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName),
	}
	if backend = strings.TrimSpace(backend); backend != "" {
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(backend)}
	}
	return newKeyringService(func() (keyring.Keyring, error) { return keyring.Open(cfg) }, log)
}

// NewKeyringServiceWith wraps an already opened keyring.
func NewKeyringServiceWith(ring keyring.Keyring, log *zap.Logger) *KeyringService {
	return newKeyringService(func() (keyring.Keyring, error) { return ring, nil }, log)
}

func newKeyringService(open func() (keyring.Keyring, error), log *zap.Logger) *KeyringService {
	if log == nil {
		log = zap.NewNop()
	}
	return &KeyringService{open: open, log: log}
}

func (s *KeyringService) openRing() (keyring.Keyring, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ring != nil {
		return s.ring, nil
	}
	ring, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	s.ring = ring
	return ring, nil
}

func (s *KeyringService) StoreBackendToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	ring, err := s.openRing()
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{
		Key:         backendTokenKey,
		Data:        []byte(token),
		Label:       "WhichModel backend token",
		Description: "Access token sent to the WhichModel backend",
	})
}

// BackendToken returns the stored token, or "" when none is stored.
func (s *KeyringService) BackendToken() (string, error) {
	ring, err := s.openRing()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(backendTokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

func (s *KeyringService) HasBackendToken() bool {
	token, err := s.BackendToken()
	return err == nil && token != ""
}

func (s *KeyringService) DeleteBackendToken() error {
	ring, err := s.openRing()
	if err != nil {
		return err
	}
	if err := ring.Remove(backendTokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

// TokenSource adapts the service to the API client's token hook. Lookup
// failures are logged and yield no token.
func (s *KeyringService) TokenSource() func() string {
	return func() string {
		token, err := s.BackendToken()
		if err != nil {
			s.log.Warn("read backend token", zap.Error(err))
			return ""
		}
		return token
	}
}
