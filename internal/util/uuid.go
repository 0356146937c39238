package util

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// ShortUUID generates a short UUID with 22 symbols
func ShortUUID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:]) // 22 symbols
}

// ClientID returns prefix with a random suffix, e.g. "obstarget-3Jc9...".
// MQTT brokers drop the older session when two clients share an id.
func ClientID(prefix string) string {
	if prefix == "" {
		return ShortUUID()
	}
	return prefix + "-" + ShortUUID()
}
