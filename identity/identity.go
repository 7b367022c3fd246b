package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"example.com/shipchain/services/shipment/domain"
)

const (
	shipmentIDPrefix  = "SHP-"
	containerIDPrefix = "CNT-"

	// Random salt sizes. The business fields make retries recognizable;
	// the salt makes collisions practically impossible.
	shipmentSaltBytes  = 16
	containerSaltBytes = 8
)

var walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidWallet reports whether s is a well-formed wallet address.
func ValidWallet(s string) bool {
	return walletPattern.MatchString(s)
}

// DeriveShipmentID derives a globally unique shipment hash from the batch
// id, the supplier wallet and the creation timestamp, mixed with a
// 128-bit random salt.
func DeriveShipmentID(batchID, wallet string, ts time.Time) (string, error) {
	if strings.TrimSpace(batchID) == "" {
		return "", domain.NewError(domain.ErrCodeInvalidContainerSpec, "batch id cannot be empty")
	}
	if !ValidWallet(wallet) {
		return "", domain.NewError(domain.ErrCodeInvalidContainerSpec, "malformed wallet address %q", wallet)
	}

	salt := make([]byte, shipmentSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to read random salt: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(batchID))
	h.Write([]byte("|"))
	h.Write([]byte(strings.ToLower(wallet)))
	h.Write([]byte("|"))
	h.Write([]byte(ts.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte("|"))
	h.Write(salt)

	return shipmentIDPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// DeriveContainerID derives a container id from the owning shipment hash
// and the container sequence number, with a 64-bit random suffix so ids
// are never reused even across regenerated sets.
func DeriveContainerID(shipmentHash string, seq int) (string, error) {
	if strings.TrimSpace(shipmentHash) == "" {
		return "", domain.NewError(domain.ErrCodeInvalidContainerSpec, "shipment hash cannot be empty")
	}
	if seq < 1 {
		return "", domain.NewError(domain.ErrCodeInvalidContainerSpec, "container sequence must be at least 1, got %d", seq)
	}

	suffix := make([]byte, containerSaltBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to read random suffix: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(shipmentHash))
	h.Write([]byte(fmt.Sprintf("|%d|", seq)))
	h.Write(suffix)

	// Short digest plus the raw suffix keeps the id scannable while
	// preserving the entropy of the random component.
	digest := hex.EncodeToString(h.Sum(nil))[:16]
	return fmt.Sprintf("%s%s-%d-%s", containerIDPrefix, digest, seq, hex.EncodeToString(suffix)), nil
}
