package cloudinary_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailor-orders/internal/cloudinary"
	"tailor-orders/internal/errs"
)

func TestUploadOne_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "unsigned", r.FormValue("upload_preset"))
		assert.Equal(t, "tailor-orders", r.FormValue("folder"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"public_id": "tailor-orders/abc123",
			"secure_url": "https://res.cloudinary.com/demo/image/upload/v1/tailor-orders/abc123.jpg",
			"bytes": 1024,
			"format": "jpg",
			"width": 800,
			"height": 600
		}`))
	}))
	defer server.Close()

	client := cloudinary.NewClient(server.URL, "demo", "unsigned")
	ref, err := client.UploadOne(context.Background(), cloudinary.File{
		Name:        "design.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("fake-jpeg"),
	}, cloudinary.UploadOptions{Folder: "tailor-orders"})

	require.NoError(t, err)
	assert.Equal(t, "tailor-orders/abc123", ref.ID)
	assert.Equal(t, "tailor-orders/abc123", ref.CloudinaryID)
	assert.Equal(t, int64(1024), ref.Size)
	assert.Equal(t, "jpg", ref.Format)
	assert.Contains(t, ref.ThumbnailURL, "/upload/w_200,h_200,c_fill/")
}

func TestUploadOne_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer server.Close()

	client := cloudinary.NewClient(server.URL, "demo", "missing")
	_, err := client.UploadOne(context.Background(), cloudinary.File{Name: "a.jpg"}, cloudinary.UploadOptions{})

	require.Error(t, err)
	assert.Equal(t, errs.KindUpload, errs.KindOf(err))
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestUploadOne_StatusFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := cloudinary.NewClient(server.URL, "demo", "unsigned")
	_, err := client.UploadOne(context.Background(), cloudinary.File{Name: "a.jpg"}, cloudinary.UploadOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload failed for a.jpg: status 502")
}

func TestUploadMany_PartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)

		if strings.HasPrefix(header.Filename, "bad") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Invalid image file"}}`))
			return
		}
		w.Write([]byte(`{"public_id":"` + header.Filename + `","secure_url":"https://res/upload/` + header.Filename + `"}`))
	}))
	defer server.Close()

	client := cloudinary.NewClient(server.URL, "demo", "unsigned")

	var (
		mu       sync.Mutex
		progress []int
	)
	files := []cloudinary.File{
		{Name: "ok-1.jpg", Data: []byte("a")},
		{Name: "bad-2.jpg", Data: []byte("b")},
		{Name: "ok-3.jpg", Data: []byte("c")},
	}
	result := client.UploadMany(context.Background(), files, cloudinary.BatchOptions{
		OnProgress: func(done, total int) {
			mu.Lock()
			progress = append(progress, done)
			mu.Unlock()
			assert.Equal(t, 3, total)
		},
	})

	// One failure never aborts the siblings
	assert.Equal(t, 2, result.TotalUploaded)
	assert.Equal(t, 1, result.TotalFailed)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Error(), "Invalid image file")

	// Successes keep input order
	require.Len(t, result.Successful, 2)
	assert.Equal(t, "ok-1.jpg", result.Successful[0].ID)
	assert.Equal(t, "ok-3.jpg", result.Successful[1].ID)

	assert.ElementsMatch(t, []int{1, 2, 3}, progress)
}

func TestThumbnailURL(t *testing.T) {
	url := "https://res.cloudinary.com/demo/image/upload/v1/folder/img.jpg"
	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/w_200,h_200,c_fill/v1/folder/img.jpg",
		cloudinary.ThumbnailURL(url),
	)
}
