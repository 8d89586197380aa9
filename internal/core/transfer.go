package core

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"essaycore/internal/blob"
	"essaycore/pkg/domain"
)

// ErrNoBlobStore is returned by blob operations on a service opened without
// a blob store.
var ErrNoBlobStore = errors.New("no blob store configured")

const exportContentType = "application/json"

// ExportFilename names an export taken at now.
func ExportFilename(now time.Time) string {
	return "college-essays-" + now.Format(domain.DateLayout) + ".json"
}

// ExportEssays writes every essay as an indented JSON array and returns the
// number of records written.
func (s *Service) ExportEssays(ctx context.Context, w io.Writer) (int, error) {
	var count int
	_, err := s.observe(ctx, opExportEssays, func(context.Context) (string, Result, error) {
		data, n, err := s.encodeEssays()
		if err != nil {
			return "", Result{}, err
		}
		count = n
		if _, err := w.Write(data); err != nil {
			return "", Result{}, errors.Wrap(err, "write export")
		}
		return "", Result{}, nil
	})
	return count, err
}

// ExportEssaysToBlob writes the export to key in the configured blob store.
func (s *Service) ExportEssaysToBlob(ctx context.Context, key string) (blob.Info, error) {
	var info blob.Info
	_, err := s.observe(ctx, opExportEssaysBlob, func(ctx context.Context) (string, Result, error) {
		if s.blobs == nil {
			return "", Result{}, ErrNoBlobStore
		}
		data, n, err := s.encodeEssays()
		if err != nil {
			return "", Result{}, err
		}
		opts := blob.PutOptions{
			ContentType: exportContentType,
			Metadata:    map[string]string{"collection": string(EntityEssay), "count": strconv.Itoa(n)},
		}
		info, err = s.blobs.Put(ctx, s.prefix+key, bytes.NewReader(data), opts)
		if err != nil {
			return "", Result{}, errors.Wrapf(err, "put %s", s.prefix+key)
		}
		return "", Result{}, nil
	})
	return info, err
}

func (s *Service) encodeEssays() ([]byte, int, error) {
	essays := s.store.ListEssays()
	data, err := json.MarshalIndent(essays, "", "  ")
	if err != nil {
		return nil, 0, errors.Wrap(err, "encode essays")
	}
	return data, len(essays), nil
}

// ImportEssays appends the essays in r to the collection as-is. Ids and
// timestamps are trusted. Anything but a JSON array of essays is a
// MalformedImportError and leaves the collection untouched. References to
// unknown institutions are reported as warnings in the Result.
func (s *Service) ImportEssays(ctx context.Context, r io.Reader) (int, Result, error) {
	var count int
	res, err := s.observe(ctx, opImportEssays, func(ctx context.Context) (string, Result, error) {
		essays, err := decodeEssays(r)
		if err != nil {
			return "", Result{}, err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.AppendEssays(essays)
		})
		if err == nil {
			count = len(essays)
		}
		return "", res, err
	})
	return count, res, err
}

func decodeEssays(r io.Reader) ([]Essay, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read import")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &domain.MalformedImportError{Err: errors.New("top-level value is not an array")}
	}
	var essays []Essay
	if err := json.Unmarshal(trimmed, &essays); err != nil {
		return nil, &domain.MalformedImportError{Err: err}
	}
	return essays, nil
}
