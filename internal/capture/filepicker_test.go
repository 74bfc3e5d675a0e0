package capture_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailor-orders/internal/capture"
	"tailor-orders/internal/cloudinary"
	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

type fakeBatchUploader struct {
	result cloudinary.BatchResult
	files  []cloudinary.File
}

func (u *fakeBatchUploader) UploadMany(ctx context.Context, files []cloudinary.File, opts cloudinary.BatchOptions) cloudinary.BatchResult {
	u.files = files
	return u.result
}

func TestPolicy_Validate(t *testing.T) {
	policy := capture.DefaultPolicy()

	files := []cloudinary.File{
		{Name: "photo.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Name: "scan.pdf", ContentType: "application/pdf", Data: []byte("b")},
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("c")},
		{Name: "huge.png", ContentType: "image/png", Data: make([]byte, 6<<20)},
	}

	valid, rejected := policy.Validate(files)

	require.Len(t, valid, 2)
	assert.Equal(t, "photo.jpg", valid[0].Name)
	assert.Equal(t, "scan.pdf", valid[1].Name)

	require.Len(t, rejected, 2)
	assert.Equal(t, "notes.txt", rejected[0].Name)
	assert.Contains(t, rejected[0].Reason, "not an accepted file type")
	assert.Equal(t, "huge.png", rejected[1].Name)
	assert.Contains(t, rejected[1].Reason, "5 MB limit")
}

func TestPicker_PartialFailure(t *testing.T) {
	uploader := &fakeBatchUploader{
		result: cloudinary.BatchResult{
			Successful: []models.ImageRef{
				{ID: "u1", URL: "https://img/1.jpg"},
				{ID: "u2", URL: "https://img/2.jpg"},
			},
			Failed:        []error{errs.New(errs.KindUpload, "upload failed for bad.jpg: status 400 Bad Request")},
			TotalUploaded: 2,
			TotalFailed:   1,
		},
	}

	var appended []models.ImageRef
	picker := capture.NewPicker(capture.DefaultPolicy(), uploader, "tailor-orders", func(refs ...models.ImageRef) {
		appended = append(appended, refs...)
	})

	files := []cloudinary.File{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Name: "bad.jpg", ContentType: "image/jpeg", Data: []byte("b")},
		{Name: "c.jpg", ContentType: "image/jpeg", Data: []byte("c")},
	}
	result, err := picker.Pick(context.Background(), files, nil)
	require.NoError(t, err)

	// Successes land in the draft, failures are reported, no rollback
	require.Len(t, appended, 2)
	assert.Equal(t, models.RefUpload, appended[0].Type)
	assert.Equal(t, "2 uploaded, 1 failed", result.Summary())
}

func TestPicker_RejectedFilesSkipUpload(t *testing.T) {
	uploader := &fakeBatchUploader{}
	picker := capture.NewPicker(capture.DefaultPolicy(), uploader, "", nil)

	result, err := picker.Pick(context.Background(), []cloudinary.File{
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("c")},
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, uploader.files)
	assert.Len(t, result.Rejected, 1)
	assert.Equal(t, "0 uploaded, 1 failed", result.Summary())
}

func TestPicker_OnlyValidFilesReachUploader(t *testing.T) {
	uploader := &fakeBatchUploader{
		result: cloudinary.BatchResult{Successful: []models.ImageRef{{ID: "u1"}}},
	}
	picker := capture.NewPicker(capture.DefaultPolicy(), uploader, "", nil)

	_, err := picker.Pick(context.Background(), []cloudinary.File{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("b")},
	}, nil)
	require.NoError(t, err)

	require.Len(t, uploader.files, 1)
	assert.Equal(t, "a.jpg", uploader.files[0].Name)
}
