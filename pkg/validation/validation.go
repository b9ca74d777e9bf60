package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// UIDRegex validates peer uid format.
	UIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{1,16}$`)

	// RoomIDRegex validates room id format. Room ids are two uids
	// concatenated, so the bound is twice the uid bound.
	RoomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{2,32}$`)
)

// ValidateUID validates a peer uid.
func ValidateUID(uid string) error {
	if uid == "" {
		return fmt.Errorf("uid is required")
	}
	if !UIDRegex.MatchString(uid) {
		return fmt.Errorf("uid must be 1-16 alphanumeric characters")
	}
	return nil
}

// ValidateRoomID validates a room id. Derivation is not re-checked;
// the id is opaque once minted.
func ValidateRoomID(roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	if !RoomIDRegex.MatchString(roomID) {
		return fmt.Errorf("room id must be 2-32 alphanumeric characters")
	}
	return nil
}

// ValidateDisplayName validates a peer display name.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > 50 {
		return fmt.Errorf("name is too long (max 50 characters)")
	}
	return nil
}

// ValidateFileName validates a relayed file name.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name is required")
	}
	if len(name) > 255 {
		return fmt.Errorf("file name is too long (max 255 characters)")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("file name must not contain path separators")
	}
	return nil
}

// MimeAllowed reports whether a MIME type passes the advisory
// allow-list. An empty list allows everything. Entries may be exact
// ("application/pdf") or a kind prefix ("image/*"). This is a UI
// convenience, not a security boundary.
func MimeAllowed(mimeType string, allowList []string) bool {
	if len(allowList) == 0 {
		return true
	}
	for _, allowed := range allowList {
		if allowed == mimeType {
			return true
		}
		if kind, ok := strings.CutSuffix(allowed, "/*"); ok {
			if strings.HasPrefix(mimeType, kind+"/") {
				return true
			}
		}
	}
	return false
}
