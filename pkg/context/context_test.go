package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSiteID(t *testing.T) {
	_, ok := GetSiteID(context.Background())
	assert.False(t, ok)

	id, ok := GetSiteID(SetSiteID(context.Background(), 3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}

func TestUserID(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   int64
		wantOK bool
	}{
		{name: "unset"},
		{name: "int64", value: int64(12), want: 12, wantOK: true},
		{name: "numeric header", value: "42", want: 42, wantOK: true},
		{name: "garbage header", value: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.value != nil {
				ctx = context.WithValue(ctx, UserIDKey, tt.value)
			}
			id, ok := GetUserID(ctx)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, id)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "req-1", GetRequestID(SetRequestID(context.Background(), "req-1")))
}
