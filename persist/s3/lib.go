// Package s3 persists serialized snapshot nodes as objects in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/hashicorp/golang-lru/simplelru"
)

// S3Interface is the part of the S3 client Persist uses.
type S3Interface interface {
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// Persist implements the snapstore.Persist interface for storing and
// loading nodes as objects. Names it has recently stored or loaded are
// remembered, and not stored again.
type Persist struct {
	s3         S3Interface
	BucketName string
	Prefix     string
	seen       *simplelru.LRU
}

// Load loads the bytes persisted in the named object.
func (p *Persist) Load(ctx context.Context, name string) ([]byte, error) {
	input := s3.GetObjectInput{
		Bucket: aws.String(p.BucketName),
		Key:    aws.String(p.Prefix + name),
	}
	output, err := p.s3.GetObjectWithContext(ctx, &input)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	defer output.Body.Close()
	b, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	p.seen.Add(name, nil)
	return b, nil
}

// Store persists the given bytes in an object of the given name, unless
// it is known to exist already.
func (p *Persist) Store(ctx context.Context, name string, b []byte) error {
	if p.seen.Contains(name) {
		return nil
	}
	input := s3.PutObjectInput{
		Bucket: aws.String(p.BucketName),
		Key:    aws.String(p.Prefix + name),
		Body:   bytes.NewReader(b),
	}
	if _, err := p.s3.PutObjectWithContext(ctx, &input); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	p.seen.Add(name, nil)
	return nil
}

// NewPersist returns a Persist that loads and stores nodes as objects
// named prefix+hash in the given bucket.
func NewPersist(client S3Interface, bucketName, prefix string) *Persist {
	seen, err := simplelru.NewLRU(1000, nil)
	if err != nil {
		panic(err)
	}
	return &Persist{client, bucketName, prefix, seen}
}
