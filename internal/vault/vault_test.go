package vault

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/onerouter/gateway/internal/domain"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	v, err := New(base64.StdEncoding.EncodeToString(key), nil)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return v
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	v := newTestVault(t)
	creds := map[string]string{
		"RAZORPAY_KEY_ID":     "rzp_test_abc",
		"RAZORPAY_KEY_SECRET": "secret123",
	}

	blob, err := v.Encrypt(creds)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	got, err := v.Decrypt(blob)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if len(got) != len(creds) {
		t.Fatalf("round trip changed size: %d != %d", len(got), len(creds))
	}
	for k, want := range creds {
		if got[k] != want {
			t.Fatalf("round trip changed %s: %q != %q", k, got[k], want)
		}
	}
}

func TestDecryptSurvivesKeyRotation(t *testing.T) {
	t.Parallel()

	v := newTestVault(t)
	creds := map[string]string{"PAYPAL_CLIENT_ID": "client", "PAYPAL_CLIENT_SECRET": "secret"}

	oldBlob, err := v.Encrypt(creds)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	newVersion, err := v.RotateKey()
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if newVersion != 2 {
		t.Fatalf("expected version 2 after first rotation, got %d", newVersion)
	}

	// Old ciphertext still opens under the retained version-1 key.
	if _, err := v.Decrypt(oldBlob); err != nil {
		t.Fatalf("decrypt of pre-rotation blob failed: %v", err)
	}

	// New encryptions carry the new version in the header.
	newBlob, err := v.Encrypt(creds)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if got := uint32(newBlob[3]); got != 2 {
		t.Fatalf("new blob should carry version 2, got %d", got)
	}
	if v.KeyInfo().CurrentVersion != 2 {
		t.Fatalf("key info should report current version 2")
	}
}

func TestDecryptDetectsTampering(t *testing.T) {
	t.Parallel()

	v := newTestVault(t)
	blob, err := v.Encrypt(map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	// Flip one bit at every offset past the version header; each mutation must
	// fail closed, never return wrong plaintext.
	for i := 4; i < len(blob); i++ {
		mutated := make([]byte, len(blob))
		copy(mutated, blob)
		mutated[i] ^= 0x01

		if _, err := v.Decrypt(mutated); !errors.Is(err, domain.ErrDecryptionFailed) {
			t.Fatalf("offset %d: expected ErrDecryptionFailed, got %v", i, err)
		}
	}
}

func TestDecryptUnknownVersion(t *testing.T) {
	t.Parallel()

	v := newTestVault(t)
	blob, err := v.Encrypt(map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	blob[0], blob[1], blob[2], blob[3] = 0, 0, 0, 99

	if _, err := v.Decrypt(blob); !errors.Is(err, domain.ErrUnknownKeyVersion) {
		t.Fatalf("expected ErrUnknownKeyVersion, got %v", err)
	}
}

func TestDecryptRejectsShortBlob(t *testing.T) {
	t.Parallel()

	v := newTestVault(t)
	if _, err := v.Decrypt(make([]byte, 16)); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed for short blob, got %v", err)
	}
}

func TestPruneKeysKeepsCurrentAndRetention(t *testing.T) {
	t.Parallel()

	v := newTestVault(t)
	for i := 0; i < 4; i++ {
		if _, err := v.RotateKey(); err != nil {
			t.Fatalf("rotate failed: %v", err)
		}
	}

	removed := v.PruneKeys(2)
	if removed != 3 {
		t.Fatalf("expected 3 removed versions, got %d", removed)
	}

	info := v.KeyInfo()
	if info.CurrentVersion != 5 {
		t.Fatalf("current version should stay 5, got %d", info.CurrentVersion)
	}
	if len(info.AvailableVersions) != 2 {
		t.Fatalf("expected 2 retained versions, got %v", info.AvailableVersions)
	}
}

func TestNewDerivesKeyFromPassphrase(t *testing.T) {
	t.Parallel()

	v, err := New("not-a-base64-key-just-a-passphrase", nil)
	if err != nil {
		t.Fatalf("passphrase bootstrap failed: %v", err)
	}
	blob, err := v.Encrypt(map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := v.Decrypt(blob); err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
}
