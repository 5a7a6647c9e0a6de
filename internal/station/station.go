// Package station owns the local installation identity: a human-readable
// name chosen once at first-run setup, an HMAC-signed station ID, and the
// hashed admin PIN. All three live in the meta store, so they survive queue
// wipes and cloud resets.
package station

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"attendance-kiosk/internal/auth"
	"attendance-kiosk/internal/storage"
)

var (
	ErrNotConfigured = errors.New("station not configured, run setup first")
	ErrNoPIN         = errors.New("no admin PIN configured")
)

// Identity is the resolved station identity, fixed for the process
// lifetime once resolved.
type Identity struct {
	Name string
	ID   string
}

// NewStationID generates a signed station ID: a random UUID plus the first
// 16 hex chars of its HMAC-SHA256 signature.
func NewStationID(secret []byte) (string, error) {
	uuidObj, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	id := uuidObj.String()

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(id))
	signature := hex.EncodeToString(h.Sum(nil))[:16]

	return fmt.Sprintf("%s-%s", id, signature), nil
}

// VerifyStationID checks the HMAC signature embedded in a station ID.
func VerifyStationID(stationID string, secret []byte) bool {
	parts := strings.Split(stationID, "-")
	if len(parts) != 6 { // uuid (5 parts) + signature (1 part)
		return false
	}

	id := strings.Join(parts[:5], "-")
	providedSig := parts[5]

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(id))
	expectedSig := hex.EncodeToString(h.Sum(nil))[:16]

	return hmac.Equal([]byte(providedSig), []byte(expectedSig))
}

// Setup performs first-run configuration: station name, signed station ID
// and admin PIN. Calling it again overwrites the name and PIN but keeps the
// existing station ID; existing scan rows keep the name they were created
// with either way.
func Setup(ctx context.Context, store storage.Provider, secret, name, pin string) (Identity, error) {
	var ident Identity

	name = strings.TrimSpace(name)
	if name == "" {
		return ident, errors.New("station name must not be empty")
	}

	id, present, err := store.GetMeta(ctx, storage.MetaKeyStationID)
	if err != nil {
		return ident, err
	}
	if !present {
		id, err = NewStationID([]byte(secret))
		if err != nil {
			return ident, fmt.Errorf("failed to generate station id: %w", err)
		}
		if err := store.SetMeta(ctx, storage.MetaKeyStationID, id); err != nil {
			return ident, err
		}
	}

	if err := store.SetMeta(ctx, storage.MetaKeyStationName, name); err != nil {
		return ident, err
	}

	if pin != "" {
		hash, err := auth.HashPIN(pin)
		if err != nil {
			return ident, err
		}
		if err := store.SetMeta(ctx, storage.MetaKeyAdminPIN, hash); err != nil {
			return ident, err
		}
	}

	ident.Name = name
	ident.ID = id
	return ident, nil
}

// Resolve loads the configured identity. A non-empty override (from config
// or environment) wins over the stored name; the stored name is not
// rewritten.
func Resolve(ctx context.Context, store storage.Provider, override string) (Identity, error) {
	var ident Identity

	name, present, err := store.GetMeta(ctx, storage.MetaKeyStationName)
	if err != nil {
		return ident, err
	}
	if override != "" {
		name = override
		present = true
	}
	if !present || name == "" {
		return ident, ErrNotConfigured
	}

	id, _, err := store.GetMeta(ctx, storage.MetaKeyStationID)
	if err != nil {
		return ident, err
	}

	ident.Name = name
	ident.ID = id
	return ident, nil
}

// VerifyPIN checks the admin PIN against the stored hash.
func VerifyPIN(ctx context.Context, store storage.Provider, pin string) (bool, error) {
	hash, present, err := store.GetMeta(ctx, storage.MetaKeyAdminPIN)
	if err != nil {
		return false, err
	}
	if !present {
		return false, ErrNoPIN
	}
	return auth.VerifyPIN(pin, hash)
}
