package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContactNumber(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizeContactNumber("+91 98765 43210"))
	assert.Equal(t, "9876543210", NormalizeContactNumber("(987) 654-3210"))
	assert.Equal(t, "", NormalizeContactNumber("abc"))
}

func TestValidateContactNumber(t *testing.T) {
	assert.True(t, ValidateContactNumber("+919876543210"))
	assert.True(t, ValidateContactNumber("1234567"))
	assert.False(t, ValidateContactNumber("123456"))
	assert.False(t, ValidateContactNumber("+"))
	assert.False(t, ValidateContactNumber("12345678901234567890"))
}
