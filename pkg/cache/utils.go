package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// GenerateKey joins a namespace prefix and an id, e.g. "drift:state:p-001".
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// GenerateKeyWithParams appends each parameter as a colon-separated segment.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}

// HashKey shortens an arbitrary key to a fixed-width hex digest. Used for
// keys derived from free-form query parameters.
func HashKey(key string) string {
	hasher := md5.New()
	hasher.Write([]byte(key))
	return hex.EncodeToString(hasher.Sum(nil))
}

// BuildPattern turns a prefix into a Redis SCAN/KEYS glob.
func BuildPattern(prefix string) string {
	return fmt.Sprintf("%s*", prefix)
}
