// Package utils: UUID generation, parsing, and validation helpers.
package utils

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// UUID version constants.
const (
	UUIDVersion1 = 1 // timestamp-based
	UUIDVersion4 = 4 // random-based
)

var (
	// standard format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	// simplified format: no hyphens
	uuidSimpleRegex = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
)

// GenerateUUID returns a random (v4) UUID in standard hyphenated form.
func GenerateUUID() (string, error) {
	uuid := make([]byte, 16)
	_, err := rand.Read(uuid)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %v", err)
	}

	uuid[6] = (uuid[6] & 0x0f) | 0x40 // version 4
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // RFC 4122 variant

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16]), nil
}

// GenerateSimpleUUID returns a random UUID with hyphens removed.
func GenerateSimpleUUID() (string, error) {
	uuid, err := GenerateUUID()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(uuid, "-", ""), nil
}

// GenerateUUIDWithPrefix returns "prefix_uuid", or a bare UUID if prefix is empty.
func GenerateUUIDWithPrefix(prefix string) (string, error) {
	uuid, err := GenerateUUID()
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return uuid, nil
	}
	return fmt.Sprintf("%s_%s", prefix, uuid), nil
}

// GenerateShortUUID returns the first 8 hex characters of a simplified UUID.
// Collision risk is non-negligible; only use where uniqueness isn't critical.
func GenerateShortUUID() (string, error) {
	uuid, err := GenerateSimpleUUID()
	if err != nil {
		return "", err
	}
	return uuid[:8], nil
}

// IsValidUUID reports whether uuid matches the standard or simplified UUID format.
func IsValidUUID(uuid string) bool {
	if uuid == "" {
		return false
	}
	if uuidRegex.MatchString(uuid) {
		return true
	}
	return uuidSimpleRegex.MatchString(uuid)
}

// NormalizeUUID converts a simplified UUID to standard hyphenated form,
// leaving an already-standard UUID unchanged (but lowercased).
func NormalizeUUID(uuid string) (string, error) {
	if !IsValidUUID(uuid) {
		return "", fmt.Errorf("invalid UUID format: %s", uuid)
	}

	if uuidRegex.MatchString(uuid) {
		return strings.ToLower(uuid), nil
	}

	if len(uuid) == 32 {
		uuid = strings.ToLower(uuid)
		return fmt.Sprintf("%s-%s-%s-%s-%s",
			uuid[0:8], uuid[8:12], uuid[12:16], uuid[16:20], uuid[20:32]), nil
	}

	return "", fmt.Errorf("unable to normalize UUID: %s", uuid)
}

// SimplifyUUID strips hyphens from uuid, leaving an already-simplified UUID unchanged.
func SimplifyUUID(uuid string) (string, error) {
	if !IsValidUUID(uuid) {
		return "", fmt.Errorf("invalid UUID format: %s", uuid)
	}
	return strings.ToLower(strings.ReplaceAll(uuid, "-", "")), nil
}

// UUIDInfo describes the result of parsing a UUID string.
type UUIDInfo struct {
	Original  string `json:"original"`
	Standard  string `json:"standard"`
	Simple    string `json:"simple"`
	Version   int    `json:"version"`
	Variant   string `json:"variant"`
	Timestamp int64  `json:"timestamp"` // only meaningful for version 1
	IsValid   bool   `json:"is_valid"`
}

// ParseUUID extracts version/variant/normalized-form details from uuid.
func ParseUUID(uuid string) *UUIDInfo {
	info := &UUIDInfo{
		Original: uuid,
		IsValid:  IsValidUUID(uuid),
	}

	if !info.IsValid {
		return info
	}

	standardUUID, err := NormalizeUUID(uuid)
	if err != nil {
		info.IsValid = false
		return info
	}
	info.Standard = standardUUID

	simpleUUID, _ := SimplifyUUID(uuid)
	info.Simple = simpleUUID

	// Version nibble sits at the 13th character (high nibble of byte 7).
	versionChar := simpleUUID[12]
	switch versionChar {
	case '1':
		info.Version = 1
		info.Timestamp = time.Now().Unix()
	case '4':
		info.Version = 4
	default:
		info.Version = int(versionChar - '0')
	}

	// Variant bits sit at the 17th character (high bits of byte 9).
	variantChar := simpleUUID[16]
	switch {
	case variantChar >= '0' && variantChar <= '7':
		info.Variant = "NCS"
	case variantChar >= '8' && variantChar <= 'b', variantChar >= 'B' && variantChar <= 'B':
		info.Variant = "RFC4122"
	case variantChar >= 'c' && variantChar <= 'd', variantChar >= 'C' && variantChar <= 'D':
		info.Variant = "Microsoft"
	default:
		info.Variant = "Reserved"
	}

	return info
}

// BatchGenerateUUID generates count UUIDs, each optionally prefixed.
func BatchGenerateUUID(count int, prefix string) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be greater than 0")
	}
	if count > 10000 {
		return nil, fmt.Errorf("cannot generate more than 10000 UUIDs at once")
	}

	uuids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var uuid string
		var err error
		if prefix != "" {
			uuid, err = GenerateUUIDWithPrefix(prefix)
		} else {
			uuid, err = GenerateUUID()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to generate UUID #%d: %v", i+1, err)
		}
		uuids = append(uuids, uuid)
	}
	return uuids, nil
}

// CompareUUID reports whether uuid1 and uuid2 refer to the same UUID,
// ignoring hyphen formatting differences.
func CompareUUID(uuid1, uuid2 string) (bool, error) {
	if !IsValidUUID(uuid1) {
		return false, fmt.Errorf("first UUID is invalid: %s", uuid1)
	}
	if !IsValidUUID(uuid2) {
		return false, fmt.Errorf("second UUID is invalid: %s", uuid2)
	}

	simple1, _ := SimplifyUUID(uuid1)
	simple2, _ := SimplifyUUID(uuid2)

	return strings.EqualFold(simple1, simple2), nil
}
