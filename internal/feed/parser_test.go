package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidPayload(t *testing.T) {
	body := `{"response":{"total":"2","data":[{"period":"2024-01-08","value":"3.955"},{"period":"2024-01-01","value":3.88}]}}`

	p, err := Parse([]byte(body))

	require.NoError(t, err)
	assert.Equal(t, "2", p.Total)
	require.Len(t, p.Entries, 2)
	assert.Equal(t, "3.955", p.Entries[0]["value"])
	assert.Equal(t, json.Number("3.88"), p.Entries[1]["value"])
}

func TestParseNumericTotal(t *testing.T) {
	p, err := Parse([]byte(`{"response":{"total":7,"data":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, "7", p.Total)
	assert.Empty(t, p.Entries)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"invalid json", `{"response":`, "invalid JSON in API response"},
		{"string error", `{"error":"invalid api_key"}`, "API error: invalid api_key"},
		{"object error", `{"error":{"code":"API_KEY_INVALID","message":"key revoked"}}`, "API error: key revoked"},
		{"missing response", `{}`, "unexpected response structure: missing response.data"},
		{"missing data", `{"response":{"total":"0"}}`, "unexpected response structure: missing response.data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			var fe *Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, KindParse, fe.Kind)
			assert.Equal(t, tc.message, fe.Message)
		})
	}
}

func TestParseKeepsNonObjectEntriesAsEmpty(t *testing.T) {
	p, err := Parse([]byte(`{"response":{"data":[42,{"period":"2024-01-01","value":"4"}]}}`))
	require.NoError(t, err)
	require.Len(t, p.Entries, 2)
	assert.Empty(t, p.Entries[0])
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad key", ErrorMessage([]byte(`{"error":"bad key"}`)))
	assert.Equal(t, "", ErrorMessage([]byte(`not json`)))
	assert.Equal(t, "", ErrorMessage([]byte(`{"response":{}}`)))
}

func TestStatusMessage(t *testing.T) {
	assert.Contains(t, StatusMessage(401), "Unauthorized")
	assert.Contains(t, StatusMessage(503), "Service unavailable")
	assert.Equal(t, "Unexpected HTTP status 418", StatusMessage(418))
}
