package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageRequiresBucket(t *testing.T) {
	_, err := NewStorage(StorageConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	s, err := NewStorage(StorageConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "gifs",
		Prefix:    "live",
	})
	require.NoError(t, err)

	assert.Equal(t, "live/abc_clip.gif", s.ObjectKey("/tmp/livegif/abc_clip.gif"))
}
