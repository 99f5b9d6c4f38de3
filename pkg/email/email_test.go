package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		first string
		last  string
	}{
		{"maria.silva@example.com", "Maria", "Silva"},
		{"joao_pereira+contratos@example.com", "Joao", "Contratos"},
		{"admin@example.com", "Admin", "User"},
		{"@example.com", "User", "User"},
		{"", "User", "User"},
	}

	for _, tt := range tests {
		first, last := DeriveNameFromEmail(tt.email)
		assert.Equal(t, tt.first, first, tt.email)
		assert.Equal(t, tt.last, last, tt.email)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Maria Silva", DisplayName("maria.silva@example.com"))
	assert.Equal(t, "Admin", DisplayName("admin@example.com"))
	assert.Equal(t, "User User", DisplayName(""))
}
