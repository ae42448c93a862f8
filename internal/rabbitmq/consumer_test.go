package rabbitmq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermanentErrors(t *testing.T) {
	base := errors.New("bad payload")

	assert.Nil(t, Permanent(nil))
	assert.False(t, IsPermanent(base))

	wrapped := fmt.Errorf("handler: %w", Permanent(base))
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, base)
}

func TestParseJSON(t *testing.T) {
	var v struct {
		Link string `json:"link"`
	}
	require.NoError(t, ParseJSON([]byte(`{"link":"x"}`), &v))
	assert.Equal(t, "x", v.Link)

	err := ParseJSON([]byte(`{not json`), &v)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}
