package secrets

import (
	"encoding/json"
	"errors"

	clog "github.com/charmbracelet/log"
	"github.com/zalando/go-keyring"

	"github.com/pullman-cli/pullman/internal/apierr"
)

// One record per installation, keyed by a fixed service/account pair.
const (
	keyringService = "pullman"
	keyringAccount = "github.com"
)

// KeyringStore persists the credential via the OS secret manager
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
type KeyringStore struct {
	log     *clog.Logger
	service string
	account string
}

var _ Store = &KeyringStore{}

// NewKeyringStore creates a store backed by the OS keyring.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{
		log:     clog.Default().WithPrefix("secrets"),
		service: keyringService,
		account: keyringAccount,
	}
}

// Open returns the OS keyring store when the host secret manager is usable,
// falling back to a process-lifetime in-memory store otherwise. The fallback
// warns loudly: credentials held in memory do not survive restart. Plaintext
// persistence is never an option.
func Open() Store {
	ks := NewKeyringStore()
	if err := ks.probe(); err != nil {
		clog.Warn("OS secret store unavailable; credentials will not survive restart", "error", err)
		return NewMemoryStore()
	}
	return ks
}

// probe checks that the secret manager answers at all. A missing record is
// a healthy answer; anything else means the backend is unusable.
func (s *KeyringStore) probe() error {
	_, err := keyring.Get(s.service, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func (s *KeyringStore) Save(cred Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return apierr.Wrap(apierr.KindConfig, err, "failed to encode credential")
	}
	if err := keyring.Set(s.service, s.account, string(payload)); err != nil {
		return apierr.Wrap(apierr.KindConfig, err, "failed to write credential to secret store")
	}
	s.log.Debug("Credential saved", "method", cred.Method, "username", cred.Username)
	return nil
}

func (s *KeyringStore) Load() (Credential, bool, error) {
	payload, err := keyring.Get(s.service, s.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, apierr.Wrap(apierr.KindConfig, err, "failed to read credential from secret store")
	}
	var cred Credential
	if err := json.Unmarshal([]byte(payload), &cred); err != nil {
		return Credential{}, false, apierr.Wrap(apierr.KindConfig, err, "failed to decode stored credential")
	}
	return cred, true, nil
}

func (s *KeyringStore) Clear() (bool, error) {
	err := keyring.Delete(s.service, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return false, apierr.Wrap(apierr.KindConfig, err, "failed to delete credential from secret store")
	}
	s.log.Debug("Credential cleared")
	return true, nil
}
