// Package s3test provides an S3 client and bucket for tests: an in-process
// fake by default, or a real endpoint when SNAPSTORE_TEST_S3_ENDPOINT is set.
package s3test

import (
	"fmt"
	"net/http/httptest"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

const (
	endpointVar = "SNAPSTORE_TEST_S3_ENDPOINT"
	bucketVar   = "SNAPSTORE_TEST_S3_BUCKET"
	noRegion    = "not-using-AWS"
)

// Client returns a client, a fresh or emptied bucket, and a func that
// releases both.
func Client() (*s3.S3, string, func()) {
	var client *s3.S3
	stopServer := func() {}
	if endpoint := os.Getenv(endpointVar); endpoint != "" {
		client = remoteClient(endpoint)
	} else {
		client, stopServer = fakeClient()
	}
	bucket, created := prepareBucket(client)
	return client, bucket, func() {
		_ = emptyBucket(client, bucket)
		if created {
			_, _ = client.DeleteBucket(&s3.DeleteBucketInput{Bucket: aws.String(bucket)})
		}
		stopServer()
	}
}

// remoteClient talks to endpoint. With AWS_REGION set it is real AWS and
// the SDK resolves the endpoint itself.
func remoteClient(endpoint string) *s3.S3 {
	region := os.Getenv("AWS_REGION")
	cfg := &aws.Config{
		Credentials: credentials.NewStaticCredentials(
			mustEnv("AWS_ACCESS_KEY_ID"),
			mustEnv("AWS_SECRET_ACCESS_KEY"),
			os.Getenv("AWS_SESSION_TOKEN"),
		),
		Region:           aws.String(noRegion),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(true),
	}
	if region != "" {
		cfg.Region = aws.String(region)
		cfg.Endpoint = nil
	}
	return s3.New(session.Must(session.NewSession(cfg)))
}

func fakeClient() (*s3.S3, func()) {
	server := httptest.NewServer(gofakes3.New(s3mem.New()).Server())
	cfg := &aws.Config{
		Credentials:      credentials.NewStaticCredentials("fake-id", "fake-secret", ""),
		Endpoint:         aws.String(server.URL),
		Region:           aws.String("us-east-1"),
		DisableSSL:       aws.Bool(true),
		S3ForcePathStyle: aws.Bool(true),
	}
	return s3.New(session.Must(session.NewSession(cfg))), server.Close
}

// prepareBucket empties the bucket named by SNAPSTORE_TEST_S3_BUCKET, or
// creates a new one. created reports the latter.
func prepareBucket(client *s3.S3) (bucket string, created bool) {
	if bucket = os.Getenv(bucketVar); bucket != "" {
		if err := emptyBucket(client, bucket); err != nil {
			panic(err)
		}
		return bucket, false
	}
	bucket = "snapstore-" + uuid.NewString()
	if _, err := client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		panic(err)
	}
	return bucket, true
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("%s must be set when %s is", key, endpointVar))
	}
	return v
}

// emptyBucket deletes every object in bucket, one listing page at a time.
func emptyBucket(client *s3.S3, bucket string) error {
	var deleteErr error
	err := client.ListObjectsPages(&s3.ListObjectsInput{Bucket: aws.String(bucket)},
		func(page *s3.ListObjectsOutput, _ bool) bool {
			if len(page.Contents) == 0 {
				return true
			}
			ids := make([]*s3.ObjectIdentifier, len(page.Contents))
			for i, obj := range page.Contents {
				ids[i] = &s3.ObjectIdentifier{Key: obj.Key}
			}
			_, err := client.DeleteObjects(&s3.DeleteObjectsInput{
				Bucket: aws.String(bucket),
				Delete: &s3.Delete{Objects: ids},
			})
			deleteErr = err
			return err == nil
		})
	if err != nil {
		return err
	}
	return deleteErr
}
