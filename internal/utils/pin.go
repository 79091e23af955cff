package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters for reservation PINs.
const (
	pinN      = 16384
	pinR      = 8
	pinP      = 1
	pinKeyLen = 32
	saltBytes = 16
)

// ErrMalformedHash is returned by VerifyPIN when the stored value is not
// in "salt:derived" form.
var ErrMalformedHash = errors.New("malformed pin hash")

// HashPIN derives an scrypt key from pin using a fresh random salt and
// returns "saltHex:derivedHex".  The hex salt string itself is the KDF
// salt input.
func HashPIN(pin string) (string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(raw)
	derived, err := derivePIN(pin, salt)
	if err != nil {
		return "", err
	}
	return salt + ":" + hex.EncodeToString(derived), nil
}

// VerifyPIN re-derives the key with the stored salt and compares it in
// constant time.
func VerifyPIN(stored, pin string) (bool, error) {
	salt, want, ok := strings.Cut(stored, ":")
	if !ok || salt == "" || want == "" {
		return false, ErrMalformedHash
	}
	wantBytes, err := hex.DecodeString(want)
	if err != nil {
		return false, ErrMalformedHash
	}
	got, err := derivePIN(pin, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(got, wantBytes) == 1, nil
}

// BurnPINDerivation performs one derivation with a throwaway salt so a
// lookup that finds no candidate costs the same as one that does.
func BurnPINDerivation(pin string) {
	_, _ = derivePIN(pin, "00000000000000000000000000000000")
}

func derivePIN(pin, salt string) ([]byte, error) {
	return scrypt.Key([]byte(pin), []byte(salt), pinN, pinR, pinP, pinKeyLen)
}
