package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain address", in: "a@b.com", want: "a@b.com"},
		{name: "surrounding spaces", in: "  a@b.com  ", want: "a@b.com"},
		{name: "domain lowercased", in: "user@Example.COM", want: "user@example.com"},
		{name: "local part preserved", in: "User.Name@example.com", want: "User.Name@example.com"},
		{name: "not an email", in: "not-an-email", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "no dot in domain", in: "a@localhost", wantErr: true},
		{name: "display name rejected", in: "John <j@example.com>", wantErr: true},
		{name: "double at", in: "a@@b.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEmail(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
