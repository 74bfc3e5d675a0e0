package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tailor-orders/internal/cloudinary"
	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

// PickerPolicy restricts what the file picker accepts. AcceptedTypes uses
// MIME patterns; a trailing "/*" matches the whole major type.
type PickerPolicy struct {
	AcceptedTypes []string
	MaxFileSize   int64
}

// DefaultPolicy matches the picker defaults: images and PDFs up to 5 MB.
func DefaultPolicy() PickerPolicy {
	return PickerPolicy{
		AcceptedTypes: []string{"image/*", "application/pdf"},
		MaxFileSize:   5 << 20,
	}
}

// RejectedFile records a file that failed local validation.
type RejectedFile struct {
	Name   string
	Reason string
}

// Validate partitions a selection into uploadable files and rejections.
// Rejections never abort the batch; the valid remainder still uploads.
func (p PickerPolicy) Validate(files []cloudinary.File) (valid []cloudinary.File, rejected []RejectedFile) {
	for _, f := range files {
		if !p.typeAccepted(f.ContentType) {
			rejected = append(rejected, RejectedFile{
				Name:   f.Name,
				Reason: fmt.Sprintf("%s is not an accepted file type", f.ContentType),
			})
			continue
		}
		if p.MaxFileSize > 0 && f.Size() > p.MaxFileSize {
			rejected = append(rejected, RejectedFile{
				Name:   f.Name,
				Reason: fmt.Sprintf("file exceeds the %d MB limit", p.MaxFileSize>>20),
			})
			continue
		}
		valid = append(valid, f)
	}
	return valid, rejected
}

func (p PickerPolicy) typeAccepted(contentType string) bool {
	for _, accepted := range p.AcceptedTypes {
		if accepted == contentType {
			return true
		}
		if major, ok := strings.CutSuffix(accepted, "/*"); ok && strings.HasPrefix(contentType, major+"/") {
			return true
		}
	}
	return false
}

// BatchUploader is the slice of the upload gateway the picker needs.
type BatchUploader interface {
	UploadMany(ctx context.Context, files []cloudinary.File, opts cloudinary.BatchOptions) cloudinary.BatchResult
}

// PickResult summarizes one selection round: local rejections plus the
// upload outcome of the valid remainder.
type PickResult struct {
	Uploaded []models.ImageRef
	Rejected []RejectedFile
	Failed   []error
}

// Summary is the user-facing outcome line, e.g. "3 uploaded, 1 failed".
func (r PickResult) Summary() string {
	return fmt.Sprintf("%d uploaded, %d failed", len(r.Uploaded), len(r.Failed)+len(r.Rejected))
}

// Picker validates a selection against its policy, uploads the valid files
// concurrently and hands each successful reference to onUpload in input
// order.
type Picker struct {
	mu       sync.Mutex
	policy   PickerPolicy
	uploader BatchUploader
	folder   string
	onUpload func(...models.ImageRef)

	uploading bool
}

func NewPicker(policy PickerPolicy, uploader BatchUploader, folder string, onUpload func(...models.ImageRef)) *Picker {
	return &Picker{
		policy:   policy,
		uploader: uploader,
		folder:   folder,
		onUpload: onUpload,
	}
}

// Pick runs one selection round. Partial failure is normal: successes land
// in the draft, failures are reported, and nothing rolls back.
func (p *Picker) Pick(ctx context.Context, files []cloudinary.File, onProgress func(done, total int)) (PickResult, error) {
	p.mu.Lock()
	if p.uploading {
		p.mu.Unlock()
		return PickResult{}, errs.New(errs.KindValidation, "an upload is already in progress")
	}
	p.uploading = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.uploading = false
		p.mu.Unlock()
	}()

	valid, rejected := p.policy.Validate(files)
	result := PickResult{Rejected: rejected}
	if len(valid) == 0 {
		return result, nil
	}

	batch := p.uploader.UploadMany(ctx, valid, cloudinary.BatchOptions{
		Folder:     p.folder,
		OnProgress: onProgress,
	})

	for i := range batch.Successful {
		batch.Successful[i].Type = models.RefUpload
	}
	result.Uploaded = batch.Successful
	result.Failed = batch.Failed

	if len(result.Uploaded) > 0 && p.onUpload != nil {
		p.onUpload(result.Uploaded...)
	}
	return result, nil
}

// Uploading reports whether a batch is in flight.
func (p *Picker) Uploading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploading
}
