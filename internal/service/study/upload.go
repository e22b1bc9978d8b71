package study

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/pkg/apperror"
	"github.com/medscanhq/medscan-api/pkg/token"
)

// Upload limits per file kind.
const (
	MaxPaperworkSize = 5 << 20
	MaxDicomSize     = 50 << 20
)

// UploadKind selects the validation rules for a batch.
type UploadKind int

const (
	KindPaperwork UploadKind = iota
	KindDicom
)

var paperworkExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// UploadFile is one file lifted out of a multipart request.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

func validateFile(f UploadFile, kind UploadKind) error {
	maxSize := int64(MaxPaperworkSize)
	if kind == KindDicom {
		maxSize = MaxDicomSize
	}
	if f.Size > maxSize {
		return apperror.PayloadTooLarge(fmt.Sprintf("file is too large - %s", f.Name))
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	switch kind {
	case KindDicom:
		if ext != ".dcm" {
			return apperror.UnsupportedMedia(fmt.Sprintf("extension is not allowed - %s", f.Name))
		}
	default:
		if !paperworkExtensions[ext] {
			return apperror.UnsupportedMedia(fmt.Sprintf("extension is not allowed - %s", f.Name))
		}
	}
	return nil
}

// uploadBatch validates every file up front, then uploads the batch with
// fan-out. The batch either fully succeeds or leaves zero net objects: any
// sibling stored before a failure is deleted again. A failed cleanup is
// surfaced as an internal error so the operator knows orphaned blobs may
// exist; it does not mask the upload error's classification when the
// cleanup succeeds.
func (s *Service) uploadBatch(ctx context.Context, files []UploadFile, kind UploadKind, prefix string) ([]model.FileRef, error) {
	for _, f := range files {
		if err := validateFile(f, kind); err != nil {
			return nil, err
		}
	}

	refs := make([]model.FileRef, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f UploadFile) {
			defer wg.Done()
			path := prefix + "/" + token.GenFilename(f.Name)
			if err := s.store.Put(ctx, path, f.Data, f.ContentType); err != nil {
				errs[i] = fmt.Errorf("failed to upload %s: %w", f.Name, err)
				return
			}
			refs[i] = model.FileRef{
				Path: path,
				URL:  s.store.URL(path),
				Type: f.ContentType,
				Size: f.Size,
			}
		}(i, f)
	}
	wg.Wait()

	var uploadErr error
	for _, err := range errs {
		if err != nil {
			uploadErr = err
			break
		}
	}
	if uploadErr == nil {
		return refs, nil
	}

	if err := s.deleteRefs(ctx, refs); err != nil {
		log.Error().Err(err).Msg("failed to clean up partial upload batch")
		return nil, apperror.Internal(fmt.Errorf("upload failed and cleanup left orphaned files: %w", uploadErr))
	}
	return nil, uploadErr
}

// deleteRefs removes the stored objects of a batch, skipping refs that were
// never written.
func (s *Service) deleteRefs(ctx context.Context, refs []model.FileRef) error {
	var firstErr error
	for _, ref := range refs {
		if ref.Path == "" {
			continue
		}
		if err := s.store.Delete(ctx, ref.Path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func uploadPrefix(centerID, mrn string) string {
	return centerID + "/" + mrn
}
