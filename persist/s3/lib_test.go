package s3_test

import (
	"context"
	"testing"

	s3Persist "github.com/jrhy/snapstore/persist/s3"
	"github.com/jrhy/snapstore/persist/s3test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestHappyCase(t *testing.T) {
	t.Parallel()
	c, bucketName, closer := s3test.Client()
	defer closer()

	p := s3Persist.NewPersist(c, bucketName, "")
	err := p.Store(ctx, "foofoo", []byte("here is some stuff"))
	require.NoError(t, err)
	b, err := p.Load(ctx, "foofoo")
	require.NoError(t, err)
	assert.Equal(t, []byte("here is some stuff"), b)
}

func TestPrefix(t *testing.T) {
	t.Parallel()
	c, bucketName, closer := s3test.Client()
	defer closer()

	a := s3Persist.NewPersist(c, bucketName, "a/")
	b := s3Persist.NewPersist(c, bucketName, "b/")
	require.NoError(t, a.Store(ctx, "node", []byte("from a")))
	_, err := b.Load(ctx, "node")
	require.Error(t, err)

	loaded, err := a.Load(ctx, "node")
	require.NoError(t, err)
	assert.Equal(t, []byte("from a"), loaded)
}
