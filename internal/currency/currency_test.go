package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	assert.True(t, Valid("EUR"))
	assert.True(t, Valid("usd"))
	assert.True(t, Valid(" chf "))
	assert.False(t, Valid("XXX"))
	assert.False(t, Valid("EURO"))
	assert.False(t, Valid(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "EUR", Normalize(" eur "))
	assert.Equal(t, "GBP", Normalize("GBP"))
}
