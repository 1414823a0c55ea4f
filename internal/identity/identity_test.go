package identity

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegistered(t *testing.T) {
	req := require.New(t)

	id, err := Parse("42")
	req.NoError(err)
	req.Equal(Registered(42), id)

	userID, ok := id.UserID()
	req.True(ok)
	req.Equal(int64(42), userID)
	req.False(id.IsGuest())
	req.Equal("42", id.String())
}

func TestParseGuest(t *testing.T) {
	req := require.New(t)

	id, err := Parse("guest-1708012345678")
	req.NoError(err)
	req.True(id.IsGuest())
	req.Equal("guest-1708012345678", id.String())

	_, ok := id.UserID()
	req.False(ok)
}

func TestParseRejectsMalformedTokens(t *testing.T) {
	for _, token := range []string{"", "0", "-7", "abc", "guest-", "12.5"} {
		_, err := Parse(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestNewGuestIsUniqueAndParseable(t *testing.T) {
	req := require.New(t)

	a := NewGuest()
	b := NewGuest()
	req.NotEqual(a, b)
	req.True(strings.HasPrefix(a.String(), GuestPrefix))

	parsed, err := Parse(a.String())
	req.NoError(err)
	req.Equal(a, parsed)
}

func TestEqualityAndMapKeys(t *testing.T) {
	req := require.New(t)

	seen := map[ID]int{
		Registered(7):    1,
		Guest("guest-x"): 2,
	}
	req.Equal(1, seen[Registered(7)])
	req.Equal(2, seen[Guest("guest-x")])

	// A guest tag never aliases a registered id.
	req.NotEqual(Registered(7), Guest("7"))
}

func TestJSONRoundTrip(t *testing.T) {
	req := require.New(t)

	data, err := json.Marshal(Registered(19))
	req.NoError(err)
	req.Equal("19", string(data))

	data, err = json.Marshal(Guest("guest-abc"))
	req.NoError(err)
	req.Equal(`"guest-abc"`, string(data))

	var id ID
	req.NoError(json.Unmarshal([]byte("19"), &id))
	req.Equal(Registered(19), id)

	req.NoError(json.Unmarshal([]byte(`"19"`), &id))
	req.Equal(Registered(19), id)

	req.NoError(json.Unmarshal([]byte(`"guest-abc"`), &id))
	req.Equal(Guest("guest-abc"), id)

	req.Error(json.Unmarshal([]byte(`true`), &id))
	req.Error(json.Unmarshal([]byte(`"nope"`), &id))
	req.Error(json.Unmarshal([]byte(`3.5`), &id))
}

func TestZeroIdentity(t *testing.T) {
	var id ID
	require.True(t, id.IsZero())

	_, err := json.Marshal(id)
	require.Error(t, err)
}
