package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(-42), `-42`},
		{"bool", IRBool(true), `true`},
		{"empty object", IRObject{}, `{}`},
		{"sorted keys", IRObject{"b": IRInt(1), "a": IRInt(2)}, `{"a":2,"b":1}`},
		{"nested", IRObject{"z": IRArray{IRObject{"y": IRInt(1), "x": IRInt(2)}}}, `{"z":[{"x":2,"y":1}]}`},
		{"no html escape", IRString("a<b&c>d"), `"a<b&c>d"`},
		{"nfc normalized", IRString("e\u0301"), "\"\u00e9\""},
		{"line separator literal", IRString("a\u2028b"), "\"a\u2028b\""},
		{"escaped backslash kept", IRString(`\u2028`), `"\\u2028"`},
		{"control escaped", IRString("a\nb"), `"a\nb"`},
		{"go map", map[string]any{"n": 1, "s": "x"}, `{"n":1,"s":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(IRObject{"a": IRNull{}})
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"f": 1.5})
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}
