package customer

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		info      Info
		wantField string
	}{
		{name: "valid", info: Info{Name: "Asha Rao", Phone: "9876543210"}},
		{name: "surrounding spaces trimmed", info: Info{Name: "  Ravi ", Phone: " 6123456789 "}},
		{name: "missing name", info: Info{Phone: "9876543210"}, wantField: "name"},
		{name: "single letter name", info: Info{Name: "A", Phone: "9876543210"}, wantField: "name"},
		{name: "digits in name", info: Info{Name: "R2D2", Phone: "9876543210"}, wantField: "name"},
		{name: "name too long", info: Info{Name: "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijk", Phone: "9876543210"}, wantField: "name"},
		{name: "missing phone", info: Info{Name: "Asha"}, wantField: "phone"},
		{name: "phone starts with 5", info: Info{Name: "Asha", Phone: "5876543210"}, wantField: "phone"},
		{name: "phone too short", info: Info{Name: "Asha", Phone: "987654321"}, wantField: "phone"},
		{name: "phone with country code", info: Info{Name: "Asha", Phone: "+919876543210"}, wantField: "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.info)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}
