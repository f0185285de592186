package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(b))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Storage_Put(t *testing.T) {
	putter := &fakePutter{}
	s := newS3Storage(putter, S3Options{Bucket: "exports-bucket", PathPrefix: "/exports/", BaseURL: "https://cdn.example.com/"})

	require.NoError(t, s.Put(context.Background(), "locale/en.json", []byte(`{"a":"b"}`)))

	require.Len(t, putter.inputs, 1)
	assert.Equal(t, "exports-bucket", aws.ToString(putter.inputs[0].Bucket))
	assert.Equal(t, "exports/locale/en.json", aws.ToString(putter.inputs[0].Key))
	assert.Equal(t, "application/json; charset=utf-8", aws.ToString(putter.inputs[0].ContentType))
	assert.Equal(t, `{"a":"b"}`, putter.bodies[0])
}

func TestS3Storage_PutFailureIsMirrorError(t *testing.T) {
	s := newS3Storage(&fakePutter{err: errors.New("access denied")}, S3Options{Bucket: "b", PathPrefix: "exports"})

	err := s.Put(context.Background(), "all/all.json", []byte("{}"))

	var mirrorErr *MirrorError
	require.ErrorAs(t, err, &mirrorErr)
	assert.Equal(t, "exports/all/all.json", mirrorErr.Path)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3Storage_URL(t *testing.T) {
	withCDN := newS3Storage(&fakePutter{}, S3Options{Bucket: "b", PathPrefix: "exports", BaseURL: "https://cdn.example.com"})
	assert.Equal(t, "https://cdn.example.com/exports/locale/en.json", withCDN.URL("locale/en.json"))

	direct := newS3Storage(&fakePutter{}, S3Options{Bucket: "b", Region: "eu-west-1"})
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/locale/en.json", direct.URL("/locale/en.json"))
}

func TestExportPath(t *testing.T) {
	assert.Equal(t, "locale/en.json", ExportPath("locale", "en", "abc", true))
	assert.Equal(t, "locale/en.abc.json", ExportPath("locale", "en", "abc", false))
	assert.Equal(t, "all/all.json", ExportPath("all", "all", "", false))
}
