package blob

import (
	memorystore "essaycore/internal/infra/blob/memory"
	s3store "essaycore/internal/infra/blob/s3"
)

// NewMemory returns an in-memory blob.Store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// NewMockS3ForTests returns an S3 store backed by a fake transport.
func NewMockS3ForTests() Store { return s3store.NewMockForTests("") }
