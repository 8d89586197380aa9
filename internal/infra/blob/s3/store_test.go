package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"

	"essaycore/internal/blob/blobtest"
	"essaycore/internal/blob/core"
)

func TestStoreConformance(t *testing.T) {
	blobtest.Run(t, func(t *testing.T) core.Store { return NewMockForTests("") })
}

func TestStoreConformanceWithPrefix(t *testing.T) {
	blobtest.Run(t, func(t *testing.T) core.Store { return NewMockForTests("essaycore/") })
}

func TestStoreMetadataRoundTrip(t *testing.T) {
	store := NewMockForTests("")
	ctx := context.Background()
	_, err := store.Put(ctx, "essays", bytes.NewReader([]byte(`[]`)), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"collection": "essays"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	info, rc, err := store.Get(ctx, "essays")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "[]" || info.ContentType != "application/json" {
		t.Fatalf("unexpected get result %q %+v", data, info)
	}
	if info.Metadata["collection"] != "essays" {
		t.Fatalf("expected metadata to round-trip, got %+v", info.Metadata)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
	s, err := New(context.Background(), Config{
		Bucket: "bkt", Endpoint: "https://mock.s3.local", PathStyle: true,
		AccessKeyID: "AKIA", SecretAccessKey: "SECRET",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Driver() != core.DriverS3 {
		t.Fatalf("expected DriverS3")
	}
}

func TestFromHeadNilBranches(t *testing.T) {
	store := NewMockForTests("")
	info := store.fromHead("k", 10, nil, aws.String("\"etagval\""), map[string]string{"x": "y"}, nil)
	if info.ETag != "etagval" || info.ContentType != "" || info.Key != "k" || info.Size != 10 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.LastModified.IsZero() {
		t.Fatalf("expected fallback last-modified")
	}
}

type statusErr struct{ code int }

func (e statusErr) Error() string       { return "status" }
func (e statusErr) HTTPStatusCode() int { return e.code }

func TestTranslateErr(t *testing.T) {
	if err := translateErr("k", statusErr{code: http.StatusNotFound}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	other := statusErr{code: http.StatusForbidden}
	if err := translateErr("k", other); errors.Is(err, core.ErrNotFound) {
		t.Fatalf("403 should not map to ErrNotFound")
	}
}

func TestDecodeChunked(t *testing.T) {
	if _, ok := decodeChunked([]byte("not-chunked")); ok {
		t.Fatalf("expected failure for plain body")
	}
	if _, ok := decodeChunked([]byte("5\r\nabc\r\n0\r\n")); ok {
		t.Fatalf("size mismatch should fail")
	}
	if b, ok := decodeChunked([]byte("5\r\nhello\r\n0\r\n")); !ok || string(b) != "hello" {
		t.Fatalf("expected decode hello")
	}
}

func TestMockRoundTripperUnsupported(t *testing.T) {
	rt := &mockRoundTripper{state: make(map[string]mockObj)}
	req, _ := http.NewRequest(http.MethodPatch, "https://mock.s3.local/bucket/key", nil)
	resp, _ := rt.RoundTrip(req)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}
