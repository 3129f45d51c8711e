package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"credit-engine/internal/pkg/apperrors"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

// Opener resolves a source name to a readable stream.
type Opener interface {
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

// SourceOpener reads gs://bucket/object sources from Cloud Storage and everything
// else from the local filesystem, confined to DataDir when one is set.
type SourceOpener struct {
	DataDir string
}

func NewSourceOpener(dataDir string) *SourceOpener {
	return &SourceOpener{DataDir: dataDir}
}

func (o *SourceOpener) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, apperrors.NewValidationError("source", "cannot be empty")
	}
	if strings.HasPrefix(source, gcsScheme) {
		return openGCS(ctx, source)
	}

	path, err := o.localPath(source)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: source %s does not exist", apperrors.ErrNotFound, source)
		}
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	return f, nil
}

func (o *SourceOpener) localPath(source string) (string, error) {
	if o.DataDir == "" {
		return filepath.Clean(source), nil
	}
	if filepath.IsAbs(source) {
		return "", apperrors.NewValidationError("source", "must be relative to the data directory")
	}
	path := filepath.Join(o.DataDir, source)
	rel, err := filepath.Rel(o.DataDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.NewValidationError("source", "escapes the data directory")
	}
	return path, nil
}

// ParseGCSURI splits gs://bucket/object into its parts.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, gcsScheme)
	if !ok {
		return "", "", apperrors.NewValidationError("source", "not a gs:// URI")
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", apperrors.NewValidationError("source", "expected gs://bucket/object")
	}
	return bucket, object, nil
}

type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func openGCS(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: object %s does not exist", apperrors.ErrNotFound, uri)
		}
		return nil, fmt.Errorf("failed to open object %s: %w", uri, err)
	}
	return &gcsReader{Reader: reader, client: client}, nil
}
