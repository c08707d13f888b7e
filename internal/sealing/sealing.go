package sealing

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required master key length in bytes.
	KeySize = 32
	// Version tags metadata written by this package.
	Version = "1"

	saltSize = 16
	infoTag  = "labnote field:"
)

var (
	// ErrKeyRequired reports a missing master key while sealing is enabled.
	ErrKeyRequired = errors.New("sealing key required")
	// ErrKeySize reports a master key of the wrong length.
	ErrKeySize = fmt.Errorf("sealing key must be %d bytes", KeySize)
)

// SensitiveFields lists the record fields sealed at rest.
var SensitiveFields = []string{"researcher", "methods", "results", "observations", "raw_text", "preamble"}

// FieldParams carries the per-field salt and nonce, base64 encoded.
type FieldParams struct {
	Salt  string `json:"salt"`
	Nonce string `json:"nonce"`
}

// Metadata describes how a stored row was sealed.
type Metadata struct {
	Encrypted bool                   `json:"encrypted"`
	Version   string                 `json:"version,omitempty"`
	Fields    map[string]FieldParams `json:"fields,omitempty"`
}

// ParseMetadata decodes stored metadata. Empty input means unencrypted.
func ParseMetadata(raw string) (Metadata, error) {
	var meta Metadata
	if strings.TrimSpace(raw) == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode sealing metadata: %w", err)
	}
	return meta, nil
}

// String encodes metadata for storage.
func (m Metadata) String() string {
	data, err := json.Marshal(m)
	if err != nil {
		return `{"encrypted":false}`
	}
	return string(data)
}

// Sealer seals and opens field values.
type Sealer struct {
	key    []byte
	random io.Reader
}

// Disabled returns a Sealer that stores values in the clear.
func Disabled() *Sealer {
	return &Sealer{}
}

// New returns a Sealer for the given master key.
func New(key []byte) (*Sealer, error) {
	if len(key) == 0 {
		return nil, ErrKeyRequired
	}
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	cp := make([]byte, len(key))
	copy(cp, key)
	return &Sealer{key: cp, random: rand.Reader}, nil
}

// KeyFromBase64 decodes a master key from its base64 form.
func KeyFromBase64(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrKeyRequired
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode sealing key: %w", err)
	}
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	return key, nil
}

// Enabled reports whether values are encrypted.
func (s *Sealer) Enabled() bool {
	return s != nil && len(s.key) > 0
}

// Seal encrypts the non-empty values in fields. The input map is not modified.
func (s *Sealer) Seal(fields map[string]string) (map[string]string, Metadata, error) {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		out[name] = value
	}
	if !s.Enabled() {
		return out, Metadata{Encrypted: false}, nil
	}

	meta := Metadata{Encrypted: true, Version: Version, Fields: map[string]FieldParams{}}
	for name, value := range fields {
		if value == "" {
			continue
		}
		salt := make([]byte, saltSize)
		if _, err := io.ReadFull(s.random, salt); err != nil {
			return nil, Metadata{}, fmt.Errorf("generate salt for %s: %w", name, err)
		}
		aead, err := s.fieldCipher(name, salt)
		if err != nil {
			return nil, Metadata{}, err
		}
		nonce := make([]byte, aead.NonceSize())
		if _, err := io.ReadFull(s.random, nonce); err != nil {
			return nil, Metadata{}, fmt.Errorf("generate nonce for %s: %w", name, err)
		}
		sealed := aead.Seal(nil, nonce, []byte(value), []byte(name))
		out[name] = base64.StdEncoding.EncodeToString(sealed)
		meta.Fields[name] = FieldParams{
			Salt:  base64.StdEncoding.EncodeToString(salt),
			Nonce: base64.StdEncoding.EncodeToString(nonce),
		}
	}
	return out, meta, nil
}

// Open decrypts the fields listed in meta. A field that cannot be opened keeps
// its stored value and contributes to the returned error, so callers always
// get a usable map.
func (s *Sealer) Open(fields map[string]string, meta Metadata) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		out[name] = value
	}
	if !meta.Encrypted || len(meta.Fields) == 0 {
		return out, nil
	}
	if !s.Enabled() {
		return out, ErrKeyRequired
	}
	var errs []error
	for name, params := range meta.Fields {
		value, ok := fields[name]
		if !ok || value == "" {
			continue
		}
		plain, err := s.openField(name, value, params)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = plain
	}
	return out, errors.Join(errs...)
}

func (s *Sealer) openField(name, value string, params FieldParams) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(params.Salt)
	if err != nil {
		return "", fmt.Errorf("decode salt for %s: %w", name, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(params.Nonce)
	if err != nil {
		return "", fmt.Errorf("decode nonce for %s: %w", name, err)
	}
	sealed, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext for %s: %w", name, err)
	}
	aead, err := s.fieldCipher(name, salt)
	if err != nil {
		return "", err
	}
	if len(nonce) != aead.NonceSize() {
		return "", fmt.Errorf("open %s: bad nonce length %d", name, len(nonce))
	}
	plain, err := aead.Open(nil, nonce, sealed, []byte(name))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	return string(plain), nil
}

func (s *Sealer) fieldCipher(name string, salt []byte) (cipher.AEAD, error) {
	derived := make([]byte, KeySize)
	kdf := hkdf.New(sha256.New, s.key, salt, []byte(infoTag+name))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, fmt.Errorf("derive key for %s: %w", name, err)
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("init cipher for %s: %w", name, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm for %s: %w", name, err)
	}
	return aead, nil
}
