package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-mediaupload/internal"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	content []byte
	err     error
	urls    []string
}

func (d *fakeDownloader) Download(_ context.Context, destination, url string) error {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return d.err
	}
	return os.WriteFile(destination, d.content, 0644)
}

type fakeFetcher struct {
	content []byte
	err     error
	buckets []string
	keys    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, bucket, key, destination string) error {
	f.buckets = append(f.buckets, bucket)
	f.keys = append(f.keys, key)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destination, f.content, 0644)
}

func newTestResolver(downloader Downloader, objects ObjectFetcher) Resolver {
	return NewResolver(
		internal.RealOS{},
		pathutil.NewPathModifier(),
		pathutil.NewPathProvider(),
		downloader,
		objects,
		log.NewLogger(),
	)
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	pth := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(pth), 0755))
	require.NoError(t, os.WriteFile(pth, content, 0644))
	return pth
}

func TestResolver_Resolve_Local(t *testing.T) {
	tmpDir := t.TempDir()
	videoPath := writeFile(t, tmpDir, "clip.mov", []byte("0123456789"))
	writeFile(t, tmpDir, "empty.mov", nil)
	writeFile(t, tmpDir, "many/a.mp4", []byte("a"))
	writeFile(t, tmpDir, "many/b.mp4", []byte("b"))
	bracketPath := writeFile(t, tmpDir, "literal/video [1].mov", []byte("0123"))
	bracePath := writeFile(t, tmpDir, "literal/take{2}.mov", []byte("01234"))
	questionPath := writeFile(t, tmpDir, "literal/what?.mov", []byte("012"))

	tests := []struct {
		name     string
		location string
		wantPath string
		wantSize uint64
		wantErr  error
	}{
		{name: "plain path", location: videoPath, wantPath: videoPath, wantSize: 10},
		{name: "file scheme", location: "file://" + videoPath, wantPath: videoPath, wantSize: 10},
		{name: "pattern matching two files", location: filepath.Join(tmpDir, "*.mov"), wantErr: ErrFileNotFound},
		{name: "recursive pattern with single match", location: filepath.Join(tmpDir, "**", "cl*.mov"), wantPath: videoPath, wantSize: 10},
		{name: "pattern with many matches", location: filepath.Join(tmpDir, "many", "*.mp4"), wantErr: ErrFileNotFound},
		{name: "pattern without matches", location: filepath.Join(tmpDir, "*.avi"), wantErr: ErrFileNotFound},
		{name: "literal name with brackets", location: bracketPath, wantPath: bracketPath, wantSize: 4},
		{name: "literal name with braces", location: bracePath, wantPath: bracePath, wantSize: 5},
		{name: "literal name with question mark", location: questionPath, wantPath: questionPath, wantSize: 3},
		{name: "missing file", location: filepath.Join(tmpDir, "missing.mov"), wantErr: ErrFileNotFound},
		{name: "empty location", location: " ", wantErr: ErrFileNotFound},
		{name: "directory", location: tmpDir, wantErr: ErrFileSizeUnavailable},
		{name: "empty file", location: filepath.Join(tmpDir, "empty.mov"), wantErr: ErrFileSizeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := newTestResolver(&fakeDownloader{}, nil).Resolve(context.Background(), tt.location)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer file.Close() //nolint:errcheck

			assert.Equal(t, tt.wantPath, file.Path)
			assert.Equal(t, tt.wantSize, file.Size)
		})
	}
}

func TestResolver_Resolve_Download(t *testing.T) {
	downloader := &fakeDownloader{content: []byte("remote video")}
	resolver := newTestResolver(downloader, nil)

	file, err := resolver.Resolve(context.Background(), "https://cdn.example.com/videos/clip.mov?sig=1")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.example.com/videos/clip.mov?sig=1"}, downloader.urls)
	assert.Equal(t, "clip.mov", filepath.Base(file.Path))
	assert.Equal(t, uint64(len("remote video")), file.Size)

	data, err := file.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "remote video", string(data))

	require.NoError(t, file.Close())
	_, err = os.Stat(filepath.Dir(file.Path))
	assert.True(t, os.IsNotExist(err), "temporary directory should be removed")
	assert.NoError(t, file.Close(), "second close is a no-op")
}

func TestResolver_Resolve_DownloadFailure(t *testing.T) {
	downloader := &fakeDownloader{err: errors.New("404 not found")}

	_, err := newTestResolver(downloader, nil).Resolve(context.Background(), "http://cdn.example.com/clip.mov")
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestResolver_Resolve_DownloadedEmptyFile(t *testing.T) {
	downloader := &fakeDownloader{content: []byte{}}

	_, err := newTestResolver(downloader, nil).Resolve(context.Background(), "http://cdn.example.com/clip.mov")
	require.ErrorIs(t, err, ErrFileSizeUnavailable)
}

func TestResolver_Resolve_Object(t *testing.T) {
	fetcher := &fakeFetcher{content: []byte("object video")}

	file, err := newTestResolver(&fakeDownloader{}, fetcher).Resolve(context.Background(), "s3://media-bucket/uploads/2024/clip.mov")
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	assert.Equal(t, []string{"media-bucket"}, fetcher.buckets)
	assert.Equal(t, []string{"uploads/2024/clip.mov"}, fetcher.keys)
	assert.Equal(t, uint64(len("object video")), file.Size)
}

func TestResolver_Resolve_ObjectErrors(t *testing.T) {
	tests := []struct {
		name     string
		objects  ObjectFetcher
		location string
	}{
		{name: "not configured", objects: nil, location: "s3://bucket/key.mov"},
		{name: "missing key", objects: &fakeFetcher{}, location: "s3://bucket/"},
		{name: "missing bucket", objects: &fakeFetcher{}, location: "s3:///key.mov"},
		{name: "fetch failure", objects: &fakeFetcher{err: errObjectNotFound}, location: "s3://bucket/key.mov"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestResolver(&fakeDownloader{}, tt.objects).Resolve(context.Background(), tt.location)
			require.ErrorIs(t, err, ErrFileNotFound)
		})
	}
}

func Test_fileNameOf(t *testing.T) {
	assert.Equal(t, "clip.mov", fileNameOf("/a/b/clip.mov"))
	assert.Equal(t, "media", fileNameOf(""))
	assert.Equal(t, "media", fileNameOf("/"))
}
