package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for an
// algorithm change without colliding with stored hashes.
const (
	DomainDocument = "idlgen/document/v1"
	DomainFile     = "idlgen/file/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash returns the content hash of a decoded document.
// Equal trees hash equally regardless of the source formatting or key order.
func DocumentHash(doc map[string]any) (string, error) {
	data, err := Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return HashWithDomain(DomainDocument, data), nil
}

// FileHash returns the content hash of a generated file.
func FileHash(content []byte) string {
	return HashWithDomain(DomainFile, content)
}
