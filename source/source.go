// Package source resolves a media file location into a local, readable file.
//
// Supported locations are plain paths, `file://` paths, glob patterns matching
// exactly one file, `http(s)://` URLs and `s3://bucket/key` objects. Remote
// locations are downloaded to a temporary directory that is removed on Close.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-mediaupload/internal"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bmatcuk/doublestar/v4"
)

const (
	fileScheme  = "file://"
	httpScheme  = "http://"
	httpsScheme = "https://"
	s3Scheme    = "s3://"

	defaultFileName = "media"
)

// ErrFileNotFound is returned when the location does not point to a readable file.
var ErrFileNotFound = errors.New("no file found at location")

// ErrFileSizeUnavailable is returned when the size of the file can not be determined.
var ErrFileSizeUnavailable = errors.New("file size unavailable")

// Downloader fetches a remote http(s) file to a local destination.
type Downloader interface {
	Download(ctx context.Context, destination, url string) error
}

// ObjectFetcher fetches an object from an object store bucket to a local destination.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key, destination string) error
}

// Resolver ...
type Resolver interface {
	Resolve(ctx context.Context, location string) (*File, error)
}

// File is a local regular file with a known, non-zero size.
type File struct {
	Path string
	Size uint64

	osProxy internal.OsProxy
	cleanup func() error
}

// ReadAll loads the whole file into memory.
func (f *File) ReadAll() ([]byte, error) {
	data, err := f.osProxy.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, err)
	}
	return data, nil
}

// Close releases temporary files created while resolving a remote location.
func (f *File) Close() error {
	if f.cleanup == nil {
		return nil
	}
	cleanup := f.cleanup
	f.cleanup = nil
	return cleanup()
}

type resolver struct {
	osProxy      internal.OsProxy
	pathModifier pathutil.PathModifier
	pathProvider pathutil.PathProvider
	downloader   Downloader
	objects      ObjectFetcher
	logger       log.Logger
}

// NewResolver creates a location resolver. `objects` can be nil, in which case s3:// locations are rejected.
func NewResolver(
	osProxy internal.OsProxy,
	pathModifier pathutil.PathModifier,
	pathProvider pathutil.PathProvider,
	downloader Downloader,
	objects ObjectFetcher,
	logger log.Logger,
) Resolver {
	return &resolver{
		osProxy:      osProxy,
		pathModifier: pathModifier,
		pathProvider: pathProvider,
		downloader:   downloader,
		objects:      objects,
		logger:       logger,
	}
}

// Resolve ...
func (r *resolver) Resolve(ctx context.Context, location string) (*File, error) {
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("%w: empty location", ErrFileNotFound)
	}

	var (
		pth     string
		cleanup func() error
		err     error
	)
	switch {
	case strings.HasPrefix(location, httpScheme), strings.HasPrefix(location, httpsScheme):
		pth, cleanup, err = r.download(ctx, location)
	case strings.HasPrefix(location, s3Scheme):
		pth, cleanup, err = r.fetchObject(ctx, location)
	default:
		pth, err = r.localPath(location)
	}
	if err != nil {
		return nil, err
	}

	file, err := r.stat(pth)
	if err != nil {
		if cleanup != nil {
			if cerr := cleanup(); cerr != nil {
				r.logger.Warnf("Failed to remove temporary files: %s", cerr)
			}
		}
		return nil, err
	}
	file.cleanup = cleanup
	return file, nil
}

func (r *resolver) localPath(location string) (string, error) {
	pth := strings.TrimPrefix(location, fileScheme)
	absPath, err := r.pathModifier.AbsPath(pth) // resolves ~/ and expands any envs
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, err)
	}

	if !isPattern(absPath) {
		return absPath, nil
	}
	// Names like "clip [1].mov" are valid files, not patterns.
	if _, err := r.osProxy.Stat(absPath); err == nil {
		return absPath, nil
	}

	base, pattern := doublestar.SplitPattern(absPath)
	matches, err := doublestar.Glob(os.DirFS(base), pattern)
	if err != nil {
		return "", fmt.Errorf("%w: expand pattern %s: %s", ErrFileNotFound, absPath, err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: pattern %s has no matches", ErrFileNotFound, absPath)
	case 1:
		r.logger.Debugf("Pattern %s matched %s", absPath, matches[0])
		return filepath.Join(base, matches[0]), nil
	default:
		return "", fmt.Errorf("%w: pattern %s matches %d files, expected exactly one", ErrFileNotFound, absPath, len(matches))
	}
}

func (r *resolver) download(ctx context.Context, location string) (string, func() error, error) {
	parsed, err := url.Parse(location)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrFileNotFound, err)
	}

	tmpDir, cleanup, err := r.tempDir()
	if err != nil {
		return "", nil, err
	}

	dst := filepath.Join(tmpDir, fileNameOf(parsed.Path))
	r.logger.Debugf("Downloading %s to %s", location, dst)
	if err := r.downloader.Download(ctx, dst, location); err != nil {
		r.removeQuietly(cleanup)
		return "", nil, fmt.Errorf("%w: download %s: %s", ErrFileNotFound, location, err)
	}

	return dst, cleanup, nil
}

func (r *resolver) fetchObject(ctx context.Context, location string) (string, func() error, error) {
	if r.objects == nil {
		return "", nil, fmt.Errorf("%w: s3 locations are not configured", ErrFileNotFound)
	}

	parsed, err := url.Parse(location)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrFileNotFound, err)
	}
	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || key == "" {
		return "", nil, fmt.Errorf("%w: invalid s3 location %s, expected s3://bucket/key", ErrFileNotFound, location)
	}

	tmpDir, cleanup, err := r.tempDir()
	if err != nil {
		return "", nil, err
	}

	dst := filepath.Join(tmpDir, fileNameOf(key))
	r.logger.Debugf("Fetching object %s from bucket %s to %s", key, bucket, dst)
	if err := r.objects.Fetch(ctx, bucket, key, dst); err != nil {
		r.removeQuietly(cleanup)
		return "", nil, fmt.Errorf("%w: fetch %s: %s", ErrFileNotFound, location, err)
	}

	return dst, cleanup, nil
}

func (r *resolver) tempDir() (string, func() error, error) {
	tmpDir, err := r.pathProvider.CreateTempDir("mediaupload")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	return tmpDir, func() error { return r.osProxy.RemoveAll(tmpDir) }, nil
}

func (r *resolver) removeQuietly(cleanup func() error) {
	if err := cleanup(); err != nil {
		r.logger.Warnf("Failed to remove temporary files: %s", err)
	}
}

func (r *resolver) stat(pth string) (*File, error) {
	info, err := r.osProxy.Stat(pth)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrFileSizeUnavailable, pth)
	}
	if info.Size() <= 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFileSizeUnavailable, pth)
	}

	f, err := r.osProxy.Open(pth)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, err)
	}
	if err := f.Close(); err != nil {
		r.logger.Warnf("Failed to close %s: %s", pth, err)
	}

	return &File{
		Path:    pth,
		Size:    uint64(info.Size()),
		osProxy: r.osProxy,
	}, nil
}

func isPattern(pth string) bool {
	return strings.ContainsAny(pth, "*?[{")
}

func fileNameOf(pth string) string {
	name := filepath.Base(pth)
	if name == "." || name == "/" || name == "" {
		return defaultFileName
	}
	return name
}
