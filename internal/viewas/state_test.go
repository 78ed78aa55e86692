// AngelaMos | 2026
// state_test.go

package viewas

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

const codecSecret = "view-as-codec-test-secret-0123456789"

func TestCodecRoundTrip(t *testing.T) {
	c, err := NewCodec(codecSecret)
	require.NoError(t, err)

	in := ViewingState{
		ViewingRole: rbac.RoleClient,
		AdminUserID: "user_admin",
		Timestamp:   1760000000000,
	}
	value, err := c.Encode(in)
	require.NoError(t, err)

	msg, err := jws.Parse([]byte(value))
	require.NoError(t, err)
	require.Len(t, msg.Signatures(), 1)
	alg, ok := msg.Signatures()[0].ProtectedHeaders().Algorithm()
	require.True(t, ok)
	assert.Equal(t, "HS256", alg.String())

	out, err := c.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCodecRejectsUnsignedState(t *testing.T) {
	c, err := NewCodec(codecSecret)
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload := base64.RawURLEncoding.EncodeToString(
		[]byte(`{"viewingRole":"admin","adminUserId":"user_admin","timestamp":1760000000000}`),
	)

	_, err = c.Decode(strings.Join([]string{header, payload, ""}, "."))
	assert.Error(t, err)
}

func TestCodecRejectsIncompleteState(t *testing.T) {
	c, err := NewCodec(codecSecret)
	require.NoError(t, err)

	value, err := c.Encode(ViewingState{ViewingRole: "auditor", AdminUserID: "u", Timestamp: 1})
	require.NoError(t, err)

	_, err = c.Decode(value)
	assert.Error(t, err)
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("")
	assert.Error(t, err)
}
