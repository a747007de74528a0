// Package vault implements authenticated encryption for tenant credential
// blobs with in-process key versioning and rotation.
//
// Blob layout: version (4 bytes, big-endian) || nonce (12 bytes) || AES-256-GCM
// ciphertext with tag. The version lives inside the ciphertext header so blobs
// are self-describing: rotation never rewrites stored rows, a row picks up the
// current key on its next write.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/hkdf"

	"github.com/onerouter/gateway/internal/domain"
)

const (
	versionLen = 4
	nonceLen   = 12
	// minBlobLen is version + nonce + at least one ciphertext byte.
	minBlobLen = versionLen + nonceLen + 1

	keyLen    = 32
	algorithm = "AES256-GCM"
)

// keyTable is an immutable snapshot of the key set. Rotation installs a new
// snapshot atomically so concurrent decrypts never observe a partial table.
type keyTable struct {
	current uint32
	keys    map[uint32][]byte
}

// Vault encrypts and decrypts credential maps under versioned 256-bit keys.
type Vault struct {
	table  atomic.Pointer[keyTable]
	mu     sync.Mutex // serializes RotateKey and PruneKeys
	logger *slog.Logger
}

// KeyInfo is the operator-visible key state. Key material never appears here.
type KeyInfo struct {
	CurrentVersion    uint32   `json:"current_version"`
	AvailableVersions []uint32 `json:"available_versions"`
	Algorithm         string   `json:"algorithm"`
}

// New bootstraps the vault from an external secret. The secret is either a
// base64-encoded 32-byte key or an arbitrary passphrase, in which case the key
// is derived with HKDF-SHA256 under a fixed gateway label.
func New(secret string, logger *slog.Logger) (*Vault, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: vault secret must be set", domain.ErrConfiguration)
	}
	if logger == nil {
		logger = slog.Default()
	}

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil || len(key) != keyLen {
		derived, derr := deriveKey(secret)
		if derr != nil {
			return nil, derr
		}
		key = derived
	}

	v := &Vault{logger: logger}
	v.table.Store(&keyTable{
		current: 1,
		keys:    map[uint32][]byte{1: key},
	})
	return v, nil
}

func deriveKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("onerouter/credential-vault/v1"))
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	return key, nil
}

// Encrypt serializes the credential map deterministically and seals it under
// the current key version with a fresh random nonce.
func (v *Vault) Encrypt(credentials map[string]string) ([]byte, error) {
	if len(credentials) == 0 {
		return nil, fmt.Errorf("%w: empty credential map", domain.ErrInvalidInput)
	}
	// encoding/json sorts map keys, giving a stable serialization.
	plaintext, err := json.Marshal(credentials)
	if err != nil {
		return nil, fmt.Errorf("serialize credentials: %w", err)
	}

	table := v.table.Load()
	key := table.keys[table.current]

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, versionLen, versionLen+nonceLen+len(plaintext)+aead.Overhead())
	binary.BigEndian.PutUint32(blob, table.current)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. Failures are permanent: an unknown
// version means the key was pruned, a tag mismatch means tampering or
// corruption. Neither is retryable and both must reach the caller typed.
func (v *Vault) Decrypt(blob []byte) (map[string]string, error) {
	if len(blob) < minBlobLen {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", domain.ErrDecryptionFailed, len(blob))
	}

	version := binary.BigEndian.Uint32(blob[:versionLen])
	nonce := blob[versionLen : versionLen+nonceLen]
	ciphertext := blob[versionLen+nonceLen:]

	table := v.table.Load()
	key, ok := table.keys[version]
	if !ok {
		return nil, fmt.Errorf("%w: version %d", domain.ErrUnknownKeyVersion, version)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", domain.ErrDecryptionFailed)
	}

	var credentials map[string]string
	if err := json.Unmarshal(plaintext, &credentials); err != nil {
		return nil, fmt.Errorf("%w: malformed plaintext", domain.ErrDecryptionFailed)
	}
	return credentials, nil
}

// RotateKey generates a new random 256-bit key and installs it as current.
// Old versions stay in the table so existing ciphertexts remain decryptable.
func (v *Vault) RotateKey() (uint32, error) {
	newKey := make([]byte, keyLen)
	if _, err := rand.Read(newKey); err != nil {
		return 0, fmt.Errorf("generate rotation key: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	old := v.table.Load()
	next := old.current + 1
	keys := make(map[uint32][]byte, len(old.keys)+1)
	for ver, k := range old.keys {
		keys[ver] = k
	}
	keys[next] = newKey
	v.table.Store(&keyTable{current: next, keys: keys})

	v.logger.Info("encryption key rotated",
		"operation", "rotate_key",
		"outcome", "success",
		"new_version", next,
	)
	v.logger.Warn("rotated key is held in process memory only; persist it externally before relying on it")
	return next, nil
}

// PruneKeys drops the oldest key versions beyond the retention count. The
// current key is never removed. Returns the number of versions dropped.
func (v *Vault) PruneKeys(keep int) int {
	if keep < 1 {
		keep = 1
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	old := v.table.Load()
	if len(old.keys) <= keep {
		return 0
	}

	versions := make([]uint32, 0, len(old.keys))
	for ver := range old.keys {
		versions = append(versions, ver)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })

	keys := make(map[uint32][]byte, keep)
	kept := 0
	for _, ver := range versions {
		if kept < keep || ver == old.current {
			keys[ver] = old.keys[ver]
			kept++
		}
	}
	removed := len(old.keys) - len(keys)
	if removed > 0 {
		v.table.Store(&keyTable{current: old.current, keys: keys})
		v.logger.Info("old encryption keys pruned",
			"operation", "prune_keys",
			"outcome", "success",
			"removed", removed,
		)
	}
	return removed
}

// KeyInfo reports current key state for operational visibility.
func (v *Vault) KeyInfo() KeyInfo {
	table := v.table.Load()
	versions := make([]uint32, 0, len(table.keys))
	for ver := range table.keys {
		versions = append(versions, ver)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return KeyInfo{
		CurrentVersion:    table.current,
		AvailableVersions: versions,
		Algorithm:         algorithm,
	}
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return aead, nil
}
