package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/pkg/utils"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec()

	for _, uid := range []domain.UID{"abc12", "xyz99", "A1b2C", "00000"} {
		img, err := codec.Encode(uid)
		require.NoError(t, err)
		require.NotEmpty(t, img)

		decoded, err := codec.Decode(img)
		require.NoError(t, err)
		assert.Equal(t, uid, decoded)
	}
}

func TestCodec_RoundTripRandomUIDs(t *testing.T) {
	codec := NewCodec()

	for i := 0; i < 10; i++ {
		uid := domain.UID(utils.GenerateUID(5))
		img, err := codec.Encode(uid)
		require.NoError(t, err)

		decoded, err := codec.Decode(img)
		require.NoError(t, err)
		assert.Equal(t, uid, decoded)
	}
}

func TestCodec_EncodeEmptyUID(t *testing.T) {
	_, err := NewCodec().Encode("")
	assert.Error(t, err)
}

func TestCodec_DecodeGarbage(t *testing.T) {
	_, err := NewCodec().Decode([]byte("not a png"))
	assert.Error(t, err)
}
