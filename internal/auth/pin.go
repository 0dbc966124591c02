package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPinMismatch = errors.New("confirmation pin does not match")

// HashPin produces the value stored in CONFIRM_PIN_HASH.
func HashPin(pin string) (string, error) {
	if pin == "" {
		return "", errors.New("pin must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPin(hash, pin string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return ErrPinMismatch
	}
	return nil
}
