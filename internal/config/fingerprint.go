package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint computes a stable hash of every setting. Two loads of the same
// files give the same fingerprint; any changed value gives a different one.
func (c SiteConfig) Fingerprint() string {
	h := sha256.New()
	for _, s := range c.Settings() {
		// %#v prints map keys in sorted order.
		fmt.Fprintf(h, "%s=%#v", s.Key, s.Value)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
