package auth

import (
	"errors"

	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/zalando/go-keyring"
)

// SetCookie persists the session cookie of account to the system keyring.
func SetCookie(account, cookie string) error {
	return keyring.Set(constant.App, account, cookie)
}

// GetCookie retrieves the session cookie of account from the system keyring.
func GetCookie(account string) (string, error) {
	cookie, err := keyring.Get(constant.App, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSession
	}
	return cookie, err
}

// DeleteCookie removes the session cookie of account from the system keyring.
func DeleteCookie(account string) error {
	err := keyring.Delete(constant.App, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
