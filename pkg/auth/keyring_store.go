package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "sspd"
	keyringPrefix  = "socialschools_"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Email == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	key := keyringPrefix + account.Email
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	// Keep an index of stored emails; the keyring API has no listing.
	return k.addToIndex(account.Email)
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(email string) (*Account, error) {
	if email == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+email)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// List returns all accounts recorded in the keyring index
func (k *KeyringStore) List() ([]*Account, error) {
	emails, err := k.readIndex()
	if err != nil {
		return nil, err
	}

	var accounts []*Account
	for _, email := range emails {
		account, err := k.Retrieve(email)
		if err != nil {
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(email string) error {
	if email == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(keyringService, keyringPrefix+email); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return k.removeFromIndex(email)
}

// Exists checks if credentials exist
func (k *KeyringStore) Exists(email string) bool {
	_, err := k.Retrieve(email)
	return err == nil
}

const indexKey = "account_index"

func (k *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, indexKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var emails []string
	if err := json.Unmarshal([]byte(data), &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

func (k *KeyringStore) writeIndex(emails []string) error {
	data, err := json.Marshal(emails)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, indexKey, string(data))
}

func (k *KeyringStore) addToIndex(email string) error {
	emails, err := k.readIndex()
	if err != nil {
		return err
	}
	for _, e := range emails {
		if e == email {
			return nil
		}
	}
	return k.writeIndex(append(emails, email))
}

func (k *KeyringStore) removeFromIndex(email string) error {
	emails, err := k.readIndex()
	if err != nil {
		return err
	}
	out := emails[:0]
	for _, e := range emails {
		if e != email {
			out = append(out, e)
		}
	}
	return k.writeIndex(out)
}
