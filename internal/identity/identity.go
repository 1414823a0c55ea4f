// Package identity models participant identities for the signaling layer.
//
// Two variants exist: registered users carry the numeric id assigned by the
// user store, while anonymous guests carry an opaque generated tag. Both
// satisfy the same capabilities (equality, map keys, JSON encoding) without
// overlapping: a guest tag is never parsed as a number, so guest identities
// can never collide with a registered id range.
package identity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// GuestPrefix marks anonymous identity tokens on the wire.
const GuestPrefix = "guest-"

// Kind discriminates the identity variants.
type Kind uint8

const (
	// KindRegistered is a user known to the user store.
	KindRegistered Kind = iota + 1
	// KindGuest is an anonymous, connection-scoped identity.
	KindGuest
)

// ID is a participant identity. The zero value is invalid and reports
// IsZero() == true. ID is comparable and safe to use as a map key.
type ID struct {
	kind  Kind
	user  int64
	guest string
}

// Registered returns the identity of a registered user.
func Registered(userID int64) ID {
	return ID{kind: KindRegistered, user: userID}
}

// Guest returns the identity for an anonymous tag. The tag is stored
// verbatim, including the guest prefix.
func Guest(tag string) ID {
	return ID{kind: KindGuest, guest: tag}
}

// NewGuest generates a fresh anonymous identity.
func NewGuest() ID {
	return Guest(GuestPrefix + uuid.NewString())
}

// Parse resolves a connection-establishment token into an identity.
// Decimal tokens are registered user ids; tokens with the guest prefix are
// anonymous identities. Anything else is rejected.
func Parse(token string) (ID, error) {
	if token == "" {
		return ID{}, fmt.Errorf("empty identity token")
	}
	if strings.HasPrefix(token, GuestPrefix) {
		if len(token) == len(GuestPrefix) {
			return ID{}, fmt.Errorf("guest token %q has no tag", token)
		}
		return Guest(token), nil
	}
	userID, err := strconv.ParseInt(token, 10, 64)
	if err != nil || userID <= 0 {
		return ID{}, fmt.Errorf("invalid identity token %q", token)
	}
	return Registered(userID), nil
}

// Kind reports the identity variant.
func (id ID) Kind() Kind { return id.kind }

// IsZero reports whether the identity is unset.
func (id ID) IsZero() bool { return id.kind == 0 }

// IsGuest reports whether the identity is anonymous.
func (id ID) IsGuest() bool { return id.kind == KindGuest }

// UserID returns the registered user id and whether the identity is a
// registered user.
func (id ID) UserID() (int64, bool) {
	if id.kind != KindRegistered {
		return 0, false
	}
	return id.user, true
}

// String renders the token form of the identity: the decimal user id for
// registered users, the tag for guests.
func (id ID) String() string {
	switch id.kind {
	case KindRegistered:
		return strconv.FormatInt(id.user, 10)
	case KindGuest:
		return id.guest
	default:
		return ""
	}
}

// MarshalJSON encodes registered ids as JSON numbers (matching the wire
// contract for stored users) and guests as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case KindRegistered:
		return []byte(strconv.FormatInt(id.user, 10)), nil
	case KindGuest:
		return json.Marshal(id.guest)
	default:
		return nil, fmt.Errorf("cannot encode zero identity")
	}
}

// UnmarshalJSON accepts a JSON number (registered id), a numeric string, or
// a guest-tagged string.
func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		userID := int64(v)
		if float64(userID) != v || userID <= 0 {
			return fmt.Errorf("invalid identity %v", v)
		}
		*id = Registered(userID)
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	default:
		return fmt.Errorf("invalid identity %T", raw)
	}
}
