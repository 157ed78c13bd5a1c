package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URL(t *testing.T) {
	bucket, key, ok := ParseS3URL("s3://audio-bucket/episodes/one.mp3")
	require.True(t, ok)
	assert.Equal(t, "audio-bucket", bucket)
	assert.Equal(t, "episodes/one.mp3", key)

	for _, bad := range []string{"out.mp3", "s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, ok := ParseS3URL(bad)
		assert.False(t, ok, bad)
	}
}

func TestFileStoreSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs)

	require.NoError(t, store.Save(context.Background(), "/out/episode.mp3", strings.NewReader("audio"), 5))

	data, err := afero.ReadFile(fs, "/out/episode.mp3")
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))

	size, err := store.Size("/out/episode.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	entries, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

type brokenReader struct{}

func (brokenReader) Read(p []byte) (int, error) { return 0, errors.New("boom") }

func TestFileStoreFailedSaveKeepsPriorFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/episode.mp3", []byte("old"), 0644))
	store := NewFileStore(fs)

	err := store.Save(context.Background(), "/out/episode.mp3", brokenReader{}, -1)
	require.ErrorContains(t, err, "boom")

	data, err := afero.ReadFile(fs, "/out/episode.mp3")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreShortWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	err := NewFileStore(fs).Save(context.Background(), "/a.mp3", strings.NewReader("abc"), 10)
	assert.ErrorContains(t, err, "short write")

	exists, _ := afero.Exists(fs, "/a.mp3")
	assert.False(t, exists)
}

func TestFileStoreCreate(t *testing.T) {
	fs := afero.NewMemMapFs()
	f, err := NewFileStore(fs).Create("/nested/dir/out.mp3")
	require.NoError(t, err)
	_, err = io.WriteString(f, "partial")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := afero.ReadFile(fs, "/nested/dir/out.mp3")
	require.NoError(t, err)
	assert.Equal(t, "partial", string(data))
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreSave(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "", "")

	require.NoError(t, store.Save(context.Background(), "s3://bucket/path/out.mp3", bytes.NewReader([]byte("mp3")), 3))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "bucket", aws.ToString(in.Bucket))
	assert.Equal(t, "path/out.mp3", aws.ToString(in.Key))
	assert.Equal(t, "audio/mpeg", aws.ToString(in.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(in.ContentLength))
	assert.Equal(t, "mp3", client.bodies[0])

	assert.ErrorContains(t, store.Save(context.Background(), "s3://bucket", strings.NewReader(""), 0), "invalid S3 destination")
}

func TestS3StoreUpload(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "audio-bucket", "https://cdn.example.com/")

	url, err := store.Upload(context.Background(), "audio/01ABC.mp3", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/audio/01ABC.mp3", url)
	assert.Equal(t, "audio-bucket", aws.ToString(client.inputs[0].Bucket))

	assert.Equal(t, "s3://b/k", NewS3Store(client, "b", "").URL("k"))

	_, err = NewS3Store(client, "", "").Upload(context.Background(), "k", strings.NewReader(""), 0)
	assert.ErrorContains(t, err, "no default S3 bucket")

	client.err = errors.New("access denied")
	_, err = store.Upload(context.Background(), "k", strings.NewReader(""), 0)
	assert.ErrorContains(t, err, "access denied")
}

func TestRouter(t *testing.T) {
	fs := afero.NewMemMapFs()
	client := &fakeS3{}
	r := &Router{Local: NewFileStore(fs), S3: NewS3Store(client, "", "")}

	require.NoError(t, r.Save(context.Background(), "/local.mp3", strings.NewReader("l"), 1))
	require.NoError(t, r.Save(context.Background(), "s3://b/remote.mp3", strings.NewReader("r"), 1))

	exists, _ := afero.Exists(fs, "/local.mp3")
	assert.True(t, exists)
	assert.Len(t, client.inputs, 1)

	noS3 := &Router{Local: NewFileStore(fs)}
	assert.ErrorContains(t, noS3.Save(context.Background(), "s3://b/k", strings.NewReader(""), 0), "no S3 client")
}
