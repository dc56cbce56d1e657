// File: internal/infra/adapters/storage/source.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"pdf-ai-pipeline/internal/config"
	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
	"pdf-ai-pipeline/internal/infra/logging"
)

var (
	_ adapter.DocumentSource = (*Router)(nil)
	_ adapter.DocumentSource = (*LocalSource)(nil)
	_ adapter.DocumentSource = (*GCSSource)(nil)
)

const gcsScheme = "gs://"

// MaxDocumentBytes bounds how much of a document is read into memory.
const MaxDocumentBytes = 100 << 20

// LocalSource reads documents from the filesystem, relative to Root when set.
type LocalSource struct {
	Root string
}

func (s *LocalSource) Open(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: document %q", domain.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return readAllLimited(f)
}

func (s *LocalSource) resolve(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: empty storage path", domain.ErrInvalidInput)
	}
	if s.Root == "" {
		return filepath.Clean(ref), nil
	}
	rel := filepath.Clean("/" + ref)
	return filepath.Join(s.Root, rel), nil
}

// GCSSource reads gs://bucket/object references. The client is created on
// first use; a failed construction is retried on the next Open.
type GCSSource struct {
	mu     sync.Mutex
	client *gcs.Client
	newFn  func(ctx context.Context) (*gcs.Client, error)
}

// NewGCSSource uses application default credentials unless opts say otherwise.
func NewGCSSource(opts ...option.ClientOption) *GCSSource {
	return &GCSSource{newFn: func(ctx context.Context) (*gcs.Client, error) { return gcs.NewClient(ctx, opts...) }}
}

// ClientOptions maps storage config onto GCS client options.
func ClientOptions(cfg config.StorageConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.GCSEndpoint != "" {
		// emulators (fake-gcs-server) take no credentials
		opts = append(opts, option.WithEndpoint(cfg.GCSEndpoint), option.WithoutAuthentication())
	}
	return opts
}

func (s *GCSSource) Open(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, err := ParseGCSRef(ref)
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: document %q", domain.ErrNotFound, ref)
		}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 403 {
			return nil, fmt.Errorf("%w: access to %q denied", domain.ErrInvalidInput, ref)
		}
		return nil, fmt.Errorf("failed to get GCS object reader for %s: %w", ref, err)
	}
	defer r.Close()
	return readAllLimited(r)
}

func (s *GCSSource) clientFor(ctx context.Context) (*gcs.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	// Client lifetime is the process; do not bind it to a request context.
	c, err := s.newFn(context.WithoutCancel(ctx))
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	s.client = c
	return c, nil
}

func (s *GCSSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ParseGCSRef splits gs://bucket/object.
func ParseGCSRef(ref string) (bucket, object string, err error) {
	if !strings.HasPrefix(ref, gcsScheme) {
		return "", "", fmt.Errorf("%w: not a gs:// reference: %q", domain.ErrInvalidInput, ref)
	}
	rest := strings.TrimPrefix(ref, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: malformed gs:// reference: %q", domain.ErrInvalidInput, ref)
	}
	return bucket, object, nil
}

// Router dispatches gs:// references to GCS and everything else to the local source.
type Router struct {
	local adapter.DocumentSource
	gcs   adapter.DocumentSource
	log   *zerolog.Logger
}

func NewRouter(local, gcsSrc adapter.DocumentSource, log *zerolog.Logger) *Router {
	return &Router{local: local, gcs: gcsSrc, log: logging.Component(log, "storage")}
}

// NewRouterFromConfig builds a Router; GCS is wired only when enabled.
func NewRouterFromConfig(cfg config.StorageConfig, log *zerolog.Logger) *Router {
	var g adapter.DocumentSource
	if cfg.GCSEnabled {
		g = NewGCSSource(ClientOptions(cfg)...)
	}
	return NewRouter(&LocalSource{Root: cfg.LocalRoot}, g, log)
}

func (r *Router) Open(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, gcsScheme) {
		if r.gcs == nil {
			return nil, fmt.Errorf("%w: gs:// references are disabled (storage.gcs_enabled)", domain.ErrInvalidInput)
		}
		r.log.Debug().Str("ref", ref).Msg("open gcs document")
		return r.gcs.Open(ctx, ref)
	}
	return r.local.Open(ctx, ref)
}

// Close releases the GCS client if one was created.
func (r *Router) Close() error {
	if c, ok := r.gcs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func readAllLimited(rd io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(rd, MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(b) > MaxDocumentBytes {
		return nil, fmt.Errorf("%w: document larger than %d bytes", domain.ErrInvalidInput, MaxDocumentBytes)
	}
	return b, nil
}
