// Package receipt verifies uploaded payment receipts against stored
// transactions and settles rewards for verified payments.
package receipt

import "context"

// TextExtractor turns a document byte stream into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// BlobStore persists raw receipt bytes and returns a retrievable URL. The
// URL is kept for audit; it plays no part in the matching logic.
type BlobStore interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}
