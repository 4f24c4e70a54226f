// Package crypton implements the authenticated-encryption envelope for
// secret messages. The bearer secret lives only in the share link: the store
// keeps a one-way digest for lookup and an AES-GCM record for the content,
// and the key is re-derived from the presented token on every open.
package crypton

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dropnote/dropnote/internal/common"
	"golang.org/x/crypto/scrypt"
)

const (
	// PrefixSecret marks tokens whose bearer can decrypt an encrypted
	// message. Word tokens never start with this letter.
	PrefixSecret = "e"

	separatorContent = "?"

	secretSize = 32
	nonceSize  = 12
	tagSize    = 16
	keySize    = 32
)

// scrypt cost parameters. Message bodies are size-capped, so derivation cost
// dominates and bounds the whole seal/open path.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrDecryption covers every way an open can fail: malformed record, wrong
// token, flipped bits. One error for all of them, so a caller cannot tell a
// bad record from a bad tag.
var ErrDecryption = errors.New("decryption failed")

// secretLen is the length of the base64url form of the raw secret.
var secretLen = base64.RawURLEncoding.EncodedLen(secretSize)

// Sealed is the result of encrypting a message body.
type Sealed struct {
	// Token is the "e"-prefixed bearer secret. It is returned to the creator
	// inside the share link and never persisted.
	Token string
	// Digest is hex(sha256(secret)), the store's lookup key for the message.
	Digest string
	// Record is the stored content triple: base64(ciphertext) ? hex(tag) ? base64(nonce).
	Record string
}

func deriveKey(secret string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(secret), salt, scryptN, scryptR, scryptP, keySize)
}

// Seal encrypts plaintext under a fresh random secret and returns the bearer
// token, the storable digest and the storable content record.
func Seal(plaintext []byte, salt []byte) (*Sealed, error) {
	secret := base64.RawURLEncoding.EncodeToString(common.GenerateRandByteArray(secretSize))

	key, err := deriveKey(secret, salt)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(nonceSize)

	// Seal appends the tag to the ciphertext; the wire format stores them
	// as separate fields.
	out := aesgcm.Seal(nil, nonce, plaintext, nil)
	ct, tag := out[:len(out)-tagSize], out[len(out)-tagSize:]

	record := strings.Join([]string{
		base64.StdEncoding.EncodeToString(ct),
		hex.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(nonce),
	}, separatorContent)

	return &Sealed{
		Token:  PrefixSecret + secret,
		Digest: digestSecret(secret),
		Record: record,
	}, nil
}

// Open authenticated-decrypts a stored content record with the token
// presented by the viewer. Every failure mode yields ErrDecryption.
func Open(record string, presentedToken string, salt []byte) ([]byte, error) {
	if !IsSecret(presentedToken) {
		return nil, ErrDecryption
	}
	secret := presentedToken[len(PrefixSecret):]

	phases := strings.Split(record, separatorContent)
	if len(phases) != 3 {
		return nil, ErrDecryption
	}

	ct, err := base64.StdEncoding.DecodeString(phases[0])
	if err != nil {
		return nil, ErrDecryption
	}
	tag, err := hex.DecodeString(phases[1])
	if err != nil || len(tag) != tagSize {
		return nil, ErrDecryption
	}
	nonce, err := base64.StdEncoding.DecodeString(phases[2])
	if err != nil || len(nonce) != nonceSize {
		return nil, ErrDecryption
	}

	key, err := deriveKey(secret, salt)
	if err != nil {
		return nil, ErrDecryption
	}
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryption
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryption
	}

	plaintext, err := aesgcm.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

// Digest maps a user-presented view token to the value the store indexes by.
// Secret tokens are hashed, ordinary tokens are their own lookup key. Every
// read path must route presented tokens through here before querying.
func Digest(presentedToken string) string {
	if IsSecret(presentedToken) {
		return digestSecret(presentedToken[len(PrefixSecret):])
	}
	return presentedToken
}

// IsSecret reports whether a presented token carries the secret marker and
// has the exact shape of a marked secret.
func IsSecret(token string) bool {
	return len(token) == len(PrefixSecret)+secretLen && strings.HasPrefix(token, PrefixSecret)
}

func digestSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
