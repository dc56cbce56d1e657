package adapter

import "context"

// DocumentSource loads raw document bytes from a storage reference
// (a local path or a gs://bucket/object URI).
type DocumentSource interface {
	Open(ctx context.Context, ref string) ([]byte, error)
}

// TextExtractor turns PDF bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, pdf []byte) (string, error)
}
