package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DefaultNamespace prefixes every export fingerprint.
const DefaultNamespace = "translations.export"

// KeyDeriver produces cache fingerprints of the form
// {namespace}.{kind}.{identifier}.{hash}, where hash is the first 128 bits of
// SHA-256 over the canonical JSON encoding of the parameters.
type KeyDeriver struct {
	Namespace string
}

func NewKeyDeriver(namespace string) KeyDeriver {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return KeyDeriver{Namespace: namespace}
}

// Derive returns the fingerprint for (kind, identifier, params).
// Map keys are encoded in sorted order at every depth, so equal maps hash equally.
// Callers sort list values before passing them in.
func (d KeyDeriver) Derive(kind Kind, identifier string, params map[string]interface{}) string {
	return fmt.Sprintf("%s.%s.%s.%s", d.namespace(), kind, identifier, Hash(params))
}

// Fixed returns a parameterless key such as the stats fingerprint.
func (d KeyDeriver) Fixed(kind Kind) string {
	return fmt.Sprintf("%s.%s", d.namespace(), kind)
}

func (d KeyDeriver) namespace() string {
	if d.Namespace == "" {
		return DefaultNamespace
	}
	return d.Namespace
}

// Hash is the 32 hex character parameter digest used in fingerprints and CDN paths.
func Hash(params map[string]interface{}) string {
	if params == nil {
		params = map[string]interface{}{}
	}
	canonical, err := json.Marshal(params)
	if err != nil {
		// only unsupported values (channels, funcs) fail; fall back to their printed form
		canonical = []byte(fmt.Sprintf("%v", params))
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:16])
}
