package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":true}`, string(got))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes to surrogates 0xD83D..., which sort before U+FB01 in UTF-16
	// but after it in UTF-8.
	got, err := MarshalCanonical(map[string]any{"ﬁ": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"ﬁ\":1}", string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("<a&b> ")
	require.NoError(t, err)
	assert.Equal(t, "\"<a&b> \"", string(got))
}

func TestMarshalCanonical_EscapesControl(t *testing.T) {
	got, err := MarshalCanonical("a\"b\\c\n\x01")
	require.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\n\u0001"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute normalizes to U+00E9.
	got, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_RejectsFloatAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)

	type withFloat struct {
		Rate float64 `json:"rate"`
	}
	_, err = MarshalCanonical(withFloat{Rate: 0.25})
	assert.Error(t, err)
}

func TestMarshalCanonical_Structs(t *testing.T) {
	type rec struct {
		Zeta   string `json:"zeta"`
		Amount Money  `json:"amount"`
		Kind   CircleType
	}
	got, err := MarshalCanonical(rec{Zeta: "z", Amount: 250, Kind: CircleROSCA})
	require.NoError(t, err)
	assert.Equal(t, `{"Kind":"rosca","amount":250,"zeta":"z"}`, string(got))
}

func TestMarshalCanonical_TypedScalars(t *testing.T) {
	got, err := MarshalCanonical([]any{Money(10), Pct(5), StatusActive})
	require.NoError(t, err)
	assert.Equal(t, `[10,500,"active"]`, string(got))
}

func TestEventID_Deterministic(t *testing.T) {
	payload := map[string]any{"member_id": "alice", "amount": int64(500)}
	a, err := EventID("c1", 3, "contribution", payload)
	require.NoError(t, err)
	b, err := EventID("c1", 3, "contribution", payload)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := EventID("c1", 4, "contribution", payload)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestActivityID_DistinctPerMember(t *testing.T) {
	assert.Equal(t, ActivityID("alice", "c1"), ActivityID("alice", "c1"))
	assert.NotEqual(t, ActivityID("alice", "c1"), ActivityID("bob", "c1"))
}
