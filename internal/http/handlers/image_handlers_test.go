package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-normalizer/internal/config"
	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/phambaophuc/image-normalizer/internal/services/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStore) Name() string { return "memory" }

func (m *memoryStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (m *memoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type upload struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func testConfig() *config.Config {
	return &config.Config{
		Normalizer: config.NormalizerConfig{
			MaxWidth:        processor.DefaultMaxWidth,
			MaxHeight:       processor.DefaultMaxHeight,
			Quality:         processor.DefaultQuality,
			OutputFormat:    processor.DefaultOutputFormat,
			CreateThumbnail: true,
			BatchWorkers:    2,
		},
		Storage: config.StorageConfig{
			Backend:     config.BackendNone,
			MaxFileSize: processor.MaxFileSize,
		},
	}
}

func newTestStorage(t *testing.T, objects storage.ObjectStore) *storage.StorageService {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return storage.NewStorageServiceWith(objects, client, "feed", storage.DefaultOptions)
}

func newTestRouter(store *storage.StorageService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewImageHandler(processor.NewImageProcessor(), store, nil, zap.NewNop(), testConfig())

	router := gin.New()
	router.GET("/health", h.HealthCheck)
	router.GET("/stats", h.GetStats)
	router.GET("/jobs/:id", h.GetJob)
	router.POST("/validate", h.ValidateImage)
	router.POST("/normalize", h.NormalizeImage)
	router.POST("/batch", h.BatchNormalize)
	router.POST("/placeholder", h.Placeholder)
	router.POST("/upload", h.UploadImage)
	router.POST("/async", h.NormalizeAsync)
	router.DELETE("/images/*key", h.DeleteImage)
	return router
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, payload interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(t *testing.T, router *gin.Engine, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestNormalizeImage(t *testing.T) {
	router := newTestRouter(nil)
	req := multipartRequest(t, "/normalize", nil,
		upload{field: "image", filename: "wide.png", contentType: "image/png", data: pngBytes(t, 2400, 1200)})

	code, env := serve(t, router, req)
	require.Equal(t, http.StatusOK, code, env.Error)

	var resp models.NormalizeResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "wide.png", resp.Filename)
	assert.Equal(t, processor.Dimensions{Width: 1920, Height: 960}, resp.Dimensions)
	assert.True(t, strings.HasPrefix(resp.Main.DataURL, "data:image/jpeg;base64,"))
	assert.Empty(t, resp.Main.URL)
	require.NotNil(t, resp.Thumbnail)
	assert.Equal(t, processor.Dimensions{Width: 400, Height: 200}, resp.Thumbnail.Dimensions)
	assert.NotEmpty(t, resp.Stats.OriginalFormatted)
}

func TestNormalizeImageWithOptions(t *testing.T) {
	router := newTestRouter(nil)
	req := multipartRequest(t, "/normalize",
		map[string]string{"max_width": "100", "format": "image/png", "thumbnail": "false", "quality": "0.5"},
		upload{field: "image", filename: "wide.png", contentType: "image/png", data: pngBytes(t, 400, 200)})

	code, env := serve(t, router, req)
	require.Equal(t, http.StatusOK, code, env.Error)

	var resp models.NormalizeResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, processor.Dimensions{Width: 100, Height: 50}, resp.Dimensions)
	assert.Equal(t, "image/png", resp.Main.MediaType)
	assert.Nil(t, resp.Thumbnail)
}

func TestNormalizeImageErrors(t *testing.T) {
	router := newTestRouter(nil)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{
			name:   "missing file",
			req:    multipartRequest(t, "/normalize", map[string]string{"max_width": "10"}),
			status: http.StatusBadRequest,
		},
		{
			name: "not an image",
			req: multipartRequest(t, "/normalize", nil,
				upload{field: "image", filename: "notes.txt", contentType: "text/plain", data: []byte("hello")}),
			status: http.StatusBadRequest,
		},
		{
			name: "undecodable",
			req: multipartRequest(t, "/normalize", nil,
				upload{field: "image", filename: "broken.png", contentType: "image/png", data: []byte("not really a png")}),
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "bad options",
			req: multipartRequest(t, "/normalize", map[string]string{"quality": "3"},
				upload{field: "image", filename: "a.png", contentType: "image/png", data: pngBytes(t, 8, 8)}),
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := serve(t, router, tt.req)
			assert.Equal(t, tt.status, code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestNormalizeImageCachesAndUploads(t *testing.T) {
	objects := &memoryStore{objects: map[string][]byte{}}
	router := newTestRouter(newTestStorage(t, objects))
	data := pngBytes(t, 64, 32)

	var ids []string
	var processed []time.Time
	for i := 0; i < 2; i++ {
		req := multipartRequest(t, "/normalize", nil,
			upload{field: "image", filename: "small.png", contentType: "image/png", data: data})
		code, env := serve(t, router, req)
		require.Equal(t, http.StatusOK, code, env.Error)

		var resp models.NormalizeResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.True(t, strings.HasPrefix(resp.Main.URL, "https://cdn.test/feed/small_"))
		require.NotNil(t, resp.Thumbnail)
		assert.NotEmpty(t, resp.Thumbnail.URL)
		ids = append(ids, resp.ID)
		processed = append(processed, resp.ProcessedAt)
	}

	assert.NotEqual(t, ids[0], ids[1])
	assert.False(t, processed[1].Before(processed[0]))
	assert.Len(t, objects.objects, 2)
}

func TestValidateImage(t *testing.T) {
	router := newTestRouter(nil)

	code, env := serve(t, router, multipartRequest(t, "/validate", nil,
		upload{field: "image", filename: "anim.gif", contentType: "image/gif", data: []byte("GIF89a")}))
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = serve(t, router, multipartRequest(t, "/validate", nil,
		upload{field: "image", filename: "doc.pdf", contentType: "application/pdf", data: []byte("%PDF")}))
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, env.Success)

	var result processor.ValidationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "Only JPEG, PNG, GIF, and WebP images are allowed", result.Error)
}

func TestBatchNormalize(t *testing.T) {
	router := newTestRouter(nil)
	req := multipartRequest(t, "/batch", nil,
		upload{field: "images", filename: "a.png", contentType: "image/png", data: pngBytes(t, 40, 20)},
		upload{field: "images", filename: "b.png", contentType: "image/png", data: pngBytes(t, 20, 40)},
		upload{field: "images", filename: "c.png", contentType: "image/png", data: []byte("garbage")},
	)

	code, env := serve(t, router, req)
	require.Equal(t, http.StatusOK, code, env.Error)

	var resp models.BatchResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Images, 2)
	assert.Equal(t, "a.png", resp.Images[0].Filename)
	assert.Equal(t, processor.Dimensions{Width: 20, Height: 40}, resp.Images[1].Dimensions)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, 2, resp.Failed[0].Index)
	assert.Equal(t, "c.png", resp.Failed[0].Filename)
}

func TestBatchNormalizeUploads(t *testing.T) {
	objects := &memoryStore{objects: map[string][]byte{}}
	router := newTestRouter(newTestStorage(t, objects))
	req := multipartRequest(t, "/batch", nil,
		upload{field: "images", filename: "a.png", contentType: "image/png", data: pngBytes(t, 40, 20)},
		upload{field: "images", filename: "b.png", contentType: "image/png", data: []byte("garbage")},
		upload{field: "images", filename: "c.png", contentType: "image/png", data: pngBytes(t, 20, 40)},
	)

	code, env := serve(t, router, req)
	require.Equal(t, http.StatusOK, code, env.Error)

	var resp models.BatchResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Images, 2)
	for i, name := range []string{"a", "c"} {
		assert.True(t, strings.HasPrefix(resp.Images[i].Main.URL, "https://cdn.test/feed/"+name+"_"), resp.Images[i].Main.URL)
		require.NotNil(t, resp.Images[i].Thumbnail)
		assert.True(t, strings.HasPrefix(resp.Images[i].Thumbnail.URL, "https://cdn.test/feed/"+name+".thumb_"))
	}
	assert.Len(t, objects.objects, 4)
}

func TestBatchNormalizeRequiresImages(t *testing.T) {
	router := newTestRouter(nil)
	code, env := serve(t, router, multipartRequest(t, "/batch", map[string]string{"quality": "0.5"}))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "no images provided", env.Error)
}

func TestPlaceholder(t *testing.T) {
	router := newTestRouter(nil)
	code, env := serve(t, router, multipartRequest(t, "/placeholder", nil,
		upload{field: "image", filename: "wide.png", contentType: "image/png", data: pngBytes(t, 200, 100)}))
	require.Equal(t, http.StatusOK, code, env.Error)

	var resp models.PlaceholderResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, strings.HasPrefix(resp.Placeholder, "data:image/jpeg;base64,"))
	assert.Equal(t, processor.Dimensions{Width: 10, Height: 5}, resp.Dimensions)
}

func TestUploadImage(t *testing.T) {
	pngURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 4, 4))

	t.Run("missing image", func(t *testing.T) {
		code, env := serve(t, newTestRouter(nil), jsonRequest(t, "/upload", map[string]string{}))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "No image provided", env.Error)
	})

	t.Run("not a data url", func(t *testing.T) {
		code, _ := serve(t, newTestRouter(nil), jsonRequest(t, "/upload", map[string]string{"image": "hello"}))
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unsupported type", func(t *testing.T) {
		pdf := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF"))
		code, env := serve(t, newTestRouter(nil), jsonRequest(t, "/upload", map[string]string{"image": pdf}))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Only JPEG, PNG, GIF, and WebP images are allowed", env.Error)
	})

	t.Run("no storage", func(t *testing.T) {
		code, _ := serve(t, newTestRouter(nil), jsonRequest(t, "/upload", map[string]string{"image": pngURL}))
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("stored", func(t *testing.T) {
		objects := &memoryStore{objects: map[string][]byte{}}
		router := newTestRouter(newTestStorage(t, objects))
		code, env := serve(t, router, jsonRequest(t, "/upload", map[string]string{"image": pngURL, "filename": "avatar.png"}))
		require.Equal(t, http.StatusCreated, code, env.Error)

		var resp models.UploadResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "Image uploaded successfully", resp.Message)
		assert.True(t, strings.HasPrefix(resp.URL, "https://cdn.test/feed/avatar_"))
		assert.Len(t, objects.objects, 1)
	})
}

func TestDeleteImage(t *testing.T) {
	t.Run("no storage", func(t *testing.T) {
		code, env := serve(t, newTestRouter(nil), httptest.NewRequest(http.MethodDelete, "/images/feed/a.jpg", nil))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "Storage is not configured", env.Error)
	})

	t.Run("missing key", func(t *testing.T) {
		code, env := serve(t, newTestRouter(nil), httptest.NewRequest(http.MethodDelete, "/images/", nil))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "No image key provided", env.Error)
	})

	t.Run("deleted", func(t *testing.T) {
		objects := &memoryStore{objects: map[string][]byte{"feed/a.jpg": []byte("a"), "feed/b.jpg": []byte("b")}}
		router := newTestRouter(newTestStorage(t, objects))

		code, env := serve(t, router, httptest.NewRequest(http.MethodDelete, "/images/feed/a.jpg", nil))
		require.Equal(t, http.StatusOK, code, env.Error)

		var resp models.DeleteResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "feed/a.jpg", resp.Key)
		assert.NotContains(t, objects.objects, "feed/a.jpg")
		assert.Contains(t, objects.objects, "feed/b.jpg")
	})
}

func TestAsyncWithoutQueue(t *testing.T) {
	code, env := serve(t, newTestRouter(nil), jsonRequest(t, "/async", map[string]string{"image_url": "https://img.test/a.png"}))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, env.Success)
}

func TestGetJob(t *testing.T) {
	store := newTestStorage(t, nil)
	router := newTestRouter(store)
	require.NoError(t, store.SaveJob(context.Background(), &models.NormalizeJob{ID: "job-7", Status: models.StatusPending}))

	code, env := serve(t, router, httptest.NewRequest(http.MethodGet, "/jobs/job-7", nil))
	require.Equal(t, http.StatusOK, code)
	var job models.NormalizeJob
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, models.StatusPending, job.Status)

	code, env = serve(t, router, httptest.NewRequest(http.MethodGet, "/jobs/unknown", nil))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Job not found", env.Error)
}

func TestHealthCheck(t *testing.T) {
	code, env := serve(t, newTestRouter(nil), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, code)

	var health models.HealthCheck
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, config.BackendNone, health.StorageBackend)
	assert.Equal(t, "not configured", health.Services["rabbitmq"])

	code, env = serve(t, newTestRouter(newTestStorage(t, nil)), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Services["redis"])
}

func TestGetStats(t *testing.T) {
	code, env := serve(t, newTestRouter(newTestStorage(t, nil)), httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, code)

	var stats map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Contains(t, stats, "cache")
	assert.Contains(t, stats, "defaults")
	assert.NotContains(t, stats, "queue")
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForError(&processor.Error{Kind: processor.KindInvalidInput}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForError(&processor.Error{Kind: processor.KindDecodeFailed}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForError(&processor.Error{Kind: processor.KindReadFailed}))
	assert.Equal(t, http.StatusInternalServerError, statusForError(&processor.Error{Kind: processor.KindEncodeFailed}))
	assert.Equal(t, http.StatusInternalServerError, statusForError(fmt.Errorf("boom")))
}
