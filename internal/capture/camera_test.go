package capture_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailor-orders/internal/capture"
	"tailor-orders/internal/cloudinary"
	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

type fakeStream struct {
	frame   []byte
	snapErr error
	closed  int32
}

func (s *fakeStream) Snapshot() ([]byte, error) {
	if s.snapErr != nil {
		return nil, s.snapErr
	}
	return s.frame, nil
}

func (s *fakeStream) Close() error {
	atomic.AddInt32(&s.closed, 1)
	return nil
}

type fakeDevice struct {
	stream  *fakeStream
	openErr error
	facing  capture.Facing
}

func (d *fakeDevice) Open(ctx context.Context, facing capture.Facing) (capture.Stream, error) {
	d.facing = facing
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.stream, nil
}

type fakeUploader struct {
	ref *models.ImageRef
	err error
}

func (u *fakeUploader) UploadOne(ctx context.Context, file cloudinary.File, opts cloudinary.UploadOptions) (*models.ImageRef, error) {
	if u.err != nil {
		return nil, u.err
	}
	ref := *u.ref
	return &ref, nil
}

func TestCamera_CaptureConfirmFlow(t *testing.T) {
	stream := &fakeStream{frame: []byte("jpeg")}
	device := &fakeDevice{stream: stream}
	uploader := &fakeUploader{ref: &models.ImageRef{ID: "c1", URL: "https://img/c1.jpg"}}

	var captured []models.ImageRef
	camera := capture.NewCamera(device, uploader, "tailor-orders", func(ref models.ImageRef) {
		captured = append(captured, ref)
	})

	require.NoError(t, camera.Open(context.Background()))
	assert.Equal(t, capture.StateLive, camera.State())
	assert.Equal(t, capture.FacingEnvironment, device.facing)

	require.NoError(t, camera.Capture())
	assert.Equal(t, capture.StatePreview, camera.State())

	ref, err := camera.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RefCamera, ref.Type)

	require.Len(t, captured, 1)
	assert.Equal(t, "c1", captured[0].ID)

	// Confirm closes the widget and releases the stream
	assert.Equal(t, capture.StateClosed, camera.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&stream.closed))
}

func TestCamera_OpenFailureDismissedToClosed(t *testing.T) {
	device := &fakeDevice{openErr: errors.New("permission denied")}

	var captured []models.ImageRef
	camera := capture.NewCamera(device, &fakeUploader{}, "", func(ref models.ImageRef) {
		captured = append(captured, ref)
	})

	err := camera.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.KindDevice, errs.KindOf(err))
	assert.Equal(t, capture.StateError, camera.State())
	assert.NotEmpty(t, camera.ErrorMessage())

	camera.Dismiss()
	assert.Equal(t, capture.StateClosed, camera.State())
	// Nothing was appended along the way
	assert.Empty(t, captured)
}

func TestCamera_RetakeReturnsToLive(t *testing.T) {
	stream := &fakeStream{frame: []byte("jpeg")}
	camera := capture.NewCamera(&fakeDevice{stream: stream}, &fakeUploader{}, "", nil)

	require.NoError(t, camera.Open(context.Background()))
	require.NoError(t, camera.Capture())
	camera.Retake()
	assert.Equal(t, capture.StateLive, camera.State())
}

func TestCamera_UploadFailureKeepsPreview(t *testing.T) {
	stream := &fakeStream{frame: []byte("jpeg")}
	uploader := &fakeUploader{err: errs.New(errs.KindUpload, "upload failed for camera-capture: status 502 Bad Gateway")}
	camera := capture.NewCamera(&fakeDevice{stream: stream}, uploader, "", nil)

	require.NoError(t, camera.Open(context.Background()))
	require.NoError(t, camera.Capture())

	_, err := camera.Confirm(context.Background())
	require.Error(t, err)

	// The frame is retained for a retry
	assert.Equal(t, capture.StatePreview, camera.State())
	assert.NotEmpty(t, camera.ErrorMessage())
	assert.Equal(t, int32(0), atomic.LoadInt32(&stream.closed))
}

func TestCamera_SwitchFacingReacquires(t *testing.T) {
	stream := &fakeStream{frame: []byte("jpeg")}
	device := &fakeDevice{stream: stream}
	camera := capture.NewCamera(device, &fakeUploader{}, "", nil)

	require.NoError(t, camera.Open(context.Background()))
	require.NoError(t, camera.SwitchFacing(context.Background()))

	assert.Equal(t, capture.FacingUser, camera.Facing())
	assert.Equal(t, capture.FacingUser, device.facing)
	assert.Equal(t, capture.StateLive, camera.State())
	// The old stream was torn down before reacquiring
	assert.Equal(t, int32(1), atomic.LoadInt32(&stream.closed))
}

func TestCamera_CloseReleasesStream(t *testing.T) {
	stream := &fakeStream{frame: []byte("jpeg")}
	camera := capture.NewCamera(&fakeDevice{stream: stream}, &fakeUploader{}, "", nil)

	require.NoError(t, camera.Open(context.Background()))
	camera.Close()

	assert.Equal(t, capture.StateClosed, camera.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&stream.closed))
}
