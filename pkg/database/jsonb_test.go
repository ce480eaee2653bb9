package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type content struct {
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

func TestJSONBScan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    content
		wantErr bool
	}{
		{name: "nil", src: nil},
		{name: "empty bytes", src: []byte{}},
		{name: "empty string", src: ""},
		{name: "bytes", src: []byte(`{"body":"hello","tags":["a"],"count":2}`), want: content{Body: "hello", Tags: []string{"a"}, Count: 2}},
		{name: "string", src: `{"body":"hi"}`, want: content{Body: "hi"}},
		{name: "typed value", src: content{Count: 9}, want: content{Count: 9}},
		{name: "malformed", src: `{"body":`, wantErr: true},
		{name: "unsupported", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var j JSONB[content]
			err := j.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, j.GetValue())
		})
	}
}

func TestJSONBValue(t *testing.T) {
	j := JSONB[map[string]int]{Data: map[string]int{"a": 1}}
	v, err := j.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(v.([]byte)))
}

func TestNormalizeRow(t *testing.T) {
	row := normalizeRow(map[string]any{
		"title":   []byte("Hello"),
		"id":      int64(4),
		"enabled": true,
		"uri":     nil,
	})
	assert.Equal(t, "Hello", row["title"])
	assert.Equal(t, int64(4), row["id"])
	assert.Equal(t, true, row["enabled"])
	assert.Nil(t, row["uri"])
}
