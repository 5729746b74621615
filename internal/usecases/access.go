package usecases

import "strings"

// WhatsAppUserSuffix is the canonical server part of a WhatsApp user JID.
const WhatsAppUserSuffix = "@s.whatsapp.net"

// AllowList is an immutable set of sender identifiers in normalized form.
type AllowList struct {
	suffix  string
	members map[string]struct{}
}

// NewAllowList normalizes every id with the given canonical suffix.
// Blank entries are ignored.
func NewAllowList(ids []string, suffix string) AllowList {
	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		n := NormalizeSenderID(id, suffix)
		if n == "" {
			continue
		}
		members[n] = struct{}{}
	}
	return AllowList{suffix: suffix, members: members}
}

// NormalizeSenderID trims whitespace, drops a leading '+' and any ":device"
// part, and appends suffix when the id carries no server part.
func NormalizeSenderID(id, suffix string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "+")
	if id == "" {
		return ""
	}

	user, server, hasServer := strings.Cut(id, "@")
	if i := strings.IndexByte(user, ':'); i >= 0 {
		user = user[:i]
	}
	if !hasServer {
		return user + suffix
	}
	return user + "@" + server
}

// IsAllowed reports whether senderID is a member, using the same
// normalization applied at load time.
func (a AllowList) IsAllowed(senderID string) bool {
	n := NormalizeSenderID(senderID, a.suffix)
	if n == "" {
		return false
	}
	_, ok := a.members[n]
	return ok
}

func (a AllowList) Len() int {
	return len(a.members)
}
