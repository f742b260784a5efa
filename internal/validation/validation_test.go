package validation

import (
	"testing"

	"capriccio/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,number,min=8"`
	Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name     string
		input    sample
		messages Messages
		expected map[string]string
	}{
		{
			name:  "Valid",
			input: sample{Name: "Ana", Phone: "1122334455"},
		},
		{
			name:  "Default messages use json names",
			input: sample{Phone: "11-22"},
			expected: map[string]string{
				"name":  "Este campo es obligatorio.",
				"phone": "Debe contener solo números.",
			},
		},
		{
			name:     "Field and tag override",
			input:    sample{Name: "Ana", Phone: "1234"},
			messages: Messages{"phone.min": "corto"},
			expected: map[string]string{"phone": "corto"},
		},
		{
			name:     "Field override",
			input:    sample{Name: "Ana", Phone: "1122334455", Kind: "c"},
			messages: Messages{"kind": "tipo"},
			expected: map[string]string{"kind": "tipo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input, tt.messages)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.expected, verr.Fields)
		})
	}
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("email", "ana@capriccio.com", "required,email", "bad"))

	err := Var("email", "ana", "required,email", "bad")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "bad", verr.Fields["email"])
}
