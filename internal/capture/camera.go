// Package capture holds the widgets that produce raw image data for an
// order: the camera, the measurement sketchpad and the file picker.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tailor-orders/internal/cloudinary"
	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

type CameraState int

const (
	StateClosed CameraState = iota
	StateLoadingDevice
	StateLive
	StateError
	StatePreview
	StateUploading
)

func (s CameraState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoadingDevice:
		return "loading-device"
	case StateLive:
		return "live"
	case StateError:
		return "error"
	case StatePreview:
		return "preview"
	case StateUploading:
		return "uploading"
	default:
		return "unknown"
	}
}

type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Device acquires a camera stream. Open may fail with a permission or
// device-missing error.
type Device interface {
	Open(ctx context.Context, facing Facing) (Stream, error)
}

// Stream is a live camera feed. It must be closed on teardown; a leaked
// stream keeps the device handle acquired.
type Stream interface {
	// Snapshot freezes the current frame as an encoded JPEG.
	Snapshot() ([]byte, error)
	Close() error
}

// Uploader is the slice of the upload gateway the camera needs.
type Uploader interface {
	UploadOne(ctx context.Context, file cloudinary.File, opts cloudinary.UploadOptions) (*models.ImageRef, error)
}

// Camera is the capture widget state machine:
// closed -> loading-device -> live <-> preview -> uploading -> closed,
// with error dismissable back to closed.
type Camera struct {
	mu        sync.Mutex
	device    Device
	uploader  Uploader
	folder    string
	onCapture func(models.ImageRef)

	state  CameraState
	facing Facing
	stream Stream
	frame  []byte
	errMsg string
}

// NewCamera builds a closed widget. onCapture receives the uploaded
// reference on confirm; the back camera is the default.
func NewCamera(device Device, uploader Uploader, folder string, onCapture func(models.ImageRef)) *Camera {
	return &Camera{
		device:    device,
		uploader:  uploader,
		folder:    folder,
		onCapture: onCapture,
		state:     StateClosed,
		facing:    FacingEnvironment,
	}
}

// Open acquires the device stream. Acquisition is cancelable: closing the
// widget while loading releases the stream as soon as it arrives.
func (c *Camera) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return errs.New(errs.KindValidation, "camera is already open")
	}
	c.state = StateLoadingDevice
	facing := c.facing
	c.mu.Unlock()

	return c.acquire(ctx, facing)
}

func (c *Camera) acquire(ctx context.Context, facing Facing) error {
	stream, err := c.device.Open(ctx, facing)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.state == StateLoadingDevice {
			c.state = StateError
			c.errMsg = "Could not start the camera. Allow camera access in the browser."
		}
		return errs.Wrap(errs.KindDevice, "failed to open camera", err)
	}
	if c.state != StateLoadingDevice {
		// Closed while acquiring; release immediately so the handle does
		// not leak.
		stream.Close()
		return nil
	}
	c.stream = stream
	c.state = StateLive
	return nil
}

// Capture snapshots the current frame and moves to preview.
func (c *Camera) Capture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLive {
		return errs.New(errs.KindValidation, "camera is not live")
	}
	frame, err := c.stream.Snapshot()
	if err != nil {
		c.errMsg = "Could not take the photo. Try again."
		return errs.Wrap(errs.KindDevice, "failed to capture frame", err)
	}
	c.frame = frame
	c.state = StatePreview
	c.errMsg = ""
	return nil
}

// Retake discards the snapshot and returns to the live feed.
func (c *Camera) Retake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePreview {
		return
	}
	c.frame = nil
	c.errMsg = ""
	c.state = StateLive
}

// Confirm uploads the snapshot. On success the reference is handed to
// onCapture and the widget closes; on failure the widget returns to
// preview with a message and the capture is not lost.
func (c *Camera) Confirm(ctx context.Context) (*models.ImageRef, error) {
	c.mu.Lock()
	if c.state != StatePreview {
		c.mu.Unlock()
		return nil, errs.New(errs.KindValidation, "nothing captured to confirm")
	}
	c.state = StateUploading
	c.errMsg = ""
	frame := c.frame
	c.mu.Unlock()

	file := cloudinary.File{
		Name:        fmt.Sprintf("camera-capture-%d.jpg", time.Now().UnixMilli()),
		ContentType: "image/jpeg",
		Data:        frame,
	}
	ref, err := c.uploader.UploadOne(ctx, file, cloudinary.UploadOptions{Folder: c.folder})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StatePreview
		c.errMsg = errs.MessageOf(err)
		return nil, err
	}

	ref.Type = models.RefCamera
	if c.onCapture != nil {
		c.onCapture(*ref)
	}

	c.frame = nil
	c.releaseStreamLocked()
	c.state = StateClosed
	return ref, nil
}

// SwitchFacing flips front/back: the current stream is torn down and the
// device reacquired without a new widget-open cycle.
func (c *Camera) SwitchFacing(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateLive {
		c.mu.Unlock()
		return errs.New(errs.KindValidation, "camera is not live")
	}
	if c.facing == FacingUser {
		c.facing = FacingEnvironment
	} else {
		c.facing = FacingUser
	}
	facing := c.facing
	c.releaseStreamLocked()
	c.frame = nil
	c.state = StateLoadingDevice
	c.mu.Unlock()

	return c.acquire(ctx, facing)
}

// Dismiss acknowledges an error and returns the widget to closed.
func (c *Camera) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateError {
		return
	}
	c.errMsg = ""
	c.state = StateClosed
}

// Close tears the widget down from any state and releases the acquired
// stream.
func (c *Camera) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseStreamLocked()
	c.frame = nil
	c.errMsg = ""
	c.state = StateClosed
}

// releaseStreamLocked must be called with c.mu held.
func (c *Camera) releaseStreamLocked() {
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
}

func (c *Camera) State() CameraState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Camera) Facing() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

func (c *Camera) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}
