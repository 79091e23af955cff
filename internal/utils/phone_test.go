package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "01012345678", NormalizePhone("010-1234-5678"))
	assert.Equal(t, "01012345678", NormalizePhone(" (010) 1234 5678 "))
	assert.Equal(t, "", NormalizePhone("abc"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "010****5678", MaskPhone("01012345678"))
	assert.Equal(t, "011****4567", MaskPhone("0111234567"))
	assert.Equal(t, "123456", MaskPhone("123456"))
	assert.Equal(t, "123****4567", MaskPhone("1234567"))
}
