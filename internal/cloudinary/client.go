// Package cloudinary is the upload gateway: it wraps the image-hosting
// service behind UploadOne/UploadMany and returns normalized ImageRef
// records.
package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

// thumbnailTransform is inserted into the canonical URL path so thumbnail
// and full image always reference the same stored asset.
const thumbnailTransform = "w_200,h_200,c_fill"

type Client struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
}

// File is raw upload input: a picked file or a camera frame converted to a
// binary blob.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

type UploadOptions struct {
	Folder string
}

type BatchOptions struct {
	Folder string
	// OnProgress reports count-completed out of count-total after each file
	// settles, not byte-level progress.
	OnProgress func(done, total int)
}

// BatchResult aggregates independently settled per-file outcomes.
type BatchResult struct {
	Successful    []models.ImageRef
	Failed        []error
	TotalUploaded int
	TotalFailed   int
}

type uploadResponse struct {
	PublicID  string    `json:"public_id"`
	SecureURL string    `json:"secure_url"`
	Bytes     int64     `json:"bytes"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(baseURL, cloudName, uploadPreset string) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UploadOne uploads a single file and returns its normalized reference.
// The caller tags the reference with its RefType (camera vs upload).
func (c *Client) UploadOne(ctx context.Context, file File, opts UploadOptions) (*models.ImageRef, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, errs.Wrap(errs.KindUpload, "failed to build upload form", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, errs.Wrap(errs.KindUpload, "failed to build upload form", err)
	}
	if err := form.WriteField("upload_preset", c.uploadPreset); err != nil {
		return nil, errs.Wrap(errs.KindUpload, "failed to build upload form", err)
	}
	if opts.Folder != "" {
		if err := form.WriteField("folder", opts.Folder); err != nil {
			return nil, errs.Wrap(errs.KindUpload, "failed to build upload form", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, errs.Wrap(errs.KindUpload, "failed to build upload form", err)
	}

	url := c.baseURL + "/" + c.cloudName + "/image/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, errs.Wrap(errs.KindUpload, "failed to create request", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindNetwork, fmt.Sprintf("failed to upload %s", file.Name), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.KindUpload, "failed to read upload response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			return nil, errs.New(errs.KindUpload, fmt.Sprintf("upload failed for %s: %s", file.Name, errResp.Error.Message))
		}
		return nil, errs.New(errs.KindUpload, fmt.Sprintf("upload failed for %s: status %d %s", file.Name, resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	var result uploadResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errs.Wrap(errs.KindUpload, "failed to decode upload response", err)
	}

	return &models.ImageRef{
		ID:           result.PublicID,
		URL:          result.SecureURL,
		ThumbnailURL: ThumbnailURL(result.SecureURL),
		CloudinaryID: result.PublicID,
		Format:       result.Format,
		Width:        result.Width,
		Height:       result.Height,
		Size:         result.Bytes,
		UploadedAt:   result.CreatedAt,
	}, nil
}

// UploadMany fans the files out concurrently and settles each one
// independently; one failure never aborts sibling uploads. Successful and
// Failed partition the final per-file outcomes.
func (c *Client) UploadMany(ctx context.Context, files []File, opts BatchOptions) BatchResult {
	refs := make([]*models.ImageRef, len(files))
	failures := make([]error, len(files))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i, file := range files {
		wg.Add(1)
		go func(i int, file File) {
			defer wg.Done()
			ref, err := c.UploadOne(ctx, file, UploadOptions{Folder: opts.Folder})
			mu.Lock()
			refs[i], failures[i] = ref, err
			done++
			settled := done
			mu.Unlock()
			if opts.OnProgress != nil {
				opts.OnProgress(settled, len(files))
			}
		}(i, file)
	}
	wg.Wait()

	result := BatchResult{
		Successful: make([]models.ImageRef, 0, len(files)),
		Failed:     make([]error, 0),
	}
	for i := range files {
		if failures[i] != nil {
			result.Failed = append(result.Failed, failures[i])
			continue
		}
		result.Successful = append(result.Successful, *refs[i])
	}
	result.TotalUploaded = len(result.Successful)
	result.TotalFailed = len(result.Failed)
	return result
}

// ThumbnailURL derives the smaller rendition of the same stored asset by
// inserting a fixed transformation segment into the canonical URL.
func ThumbnailURL(secureURL string) string {
	return strings.Replace(secureURL, "/upload/", "/upload/"+thumbnailTransform+"/", 1)
}
