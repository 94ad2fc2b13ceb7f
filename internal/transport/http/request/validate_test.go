package request

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(body string, id string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	if id != "" {
		c.Params = gin.Params{{Key: "id", Value: id}}
	}
	return c
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Message
}

func TestDecodeCredential(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{name: "empty body", body: "", msg: MsgMissingBody},
		{name: "whitespace body", body: "  \n", msg: MsgMissingBody},
		{name: "not json", body: "uid=connor", msg: MsgBodyNotJSON},
		{name: "truncated json", body: `{"uid":"connor"`, msg: MsgBodyNotJSON},
		{name: "uid only", body: `{"uid":"foo"}`, msg: MsgMissingFields},
		{name: "pwd only", body: `{"pwd":"foo"}`, msg: MsgMissingFields},
		{name: "empty uid", body: `{"uid":"","pwd":"foo"}`, msg: MsgMissingFields},
		{name: "wrong type", body: `{"uid":1,"pwd":"foo"}`, msg: MsgMissingFields},
		{name: "array", body: `[]`, msg: MsgMissingFields},
		{name: "null", body: `null`, msg: MsgMissingFields},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCredential(newContext(tc.body, ""))
			assert.Equal(t, tc.msg, validationMessage(t, err))
		})
	}
}

func TestDecodeCredential_Valid(t *testing.T) {
	cred, err := DecodeCredential(newContext(`{"uid":"connor","pwd":"icecream","extra":true}`, ""))
	require.NoError(t, err)
	assert.Equal(t, "connor", cred.UID)
	assert.Equal(t, "icecream", cred.Pwd)
}

func TestDecodeCredential_ReportsFailedFields(t *testing.T) {
	_, err := DecodeCredential(newContext(`{"uid":"foo"}`, ""))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Pwd"}, verr.Fields)
}

func TestDecodeUserPatch(t *testing.T) {
	patch, err := DecodeUserPatch(newContext(`{"uid":"jade"}`, "1"))
	require.NoError(t, err)
	require.NotNil(t, patch.UID)
	assert.Equal(t, "jade", *patch.UID)

	_, err = DecodeUserPatch(newContext(`{}`, "1"))
	assert.Equal(t, MsgMissingFields, validationMessage(t, err))

	_, err = DecodeUserPatch(newContext(``, "1"))
	assert.Equal(t, MsgMissingBody, validationMessage(t, err))
}

func TestParseID(t *testing.T) {
	id, err := ParseID(newContext("", "42"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	id, err = ParseID(newContext("", "9223372036854775807"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63-1), id)

	for _, raw := range []string{"", "0", "abc", "-1", "1.5", "1e3", "9223372036854775808", "18446744073709551615"} {
		_, err := ParseID(newContext("", raw))
		assert.Equal(t, MsgMissingUserID, validationMessage(t, err), "id %q", raw)
	}
}
