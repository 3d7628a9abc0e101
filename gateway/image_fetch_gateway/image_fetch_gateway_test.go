package image_fetch_gateway

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"media-proxy/domain"
	"media-proxy/utils/errors"
)

func testImageBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestImageFetchGateway_Success(t *testing.T) {
	imageData := testImageBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected User-Agent header to be set")
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(imageData)
	}))
	defer server.Close()

	gw := NewImageFetchGateway(server.Client(), "")
	result, err := gw.FetchImage(context.Background(), mustParseURL(t, server.URL+"/photo.jpg"), nil)
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}

	if result.ContentType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.ContentType)
	}
	if !bytes.Equal(result.Data, imageData) {
		t.Error("fetched data does not match origin bytes")
	}
	if result.Size != len(imageData) {
		t.Errorf("Size mismatch: %d vs %d", result.Size, len(imageData))
	}
	if result.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
}

func TestImageFetchGateway_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	gw := NewImageFetchGateway(server.Client(), "")
	_, err := gw.FetchImage(context.Background(), mustParseURL(t, server.URL), nil)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	appErr, ok := errors.AsAppContextError(err)
	if !ok {
		t.Fatalf("expected AppContextError, got %T", err)
	}
	if appErr.Code != errors.CodeExternalAPI {
		t.Errorf("expected code %s, got %s", errors.CodeExternalAPI, appErr.Code)
	}
	if status, _ := appErr.Context["status_code"].(int); status != http.StatusNotFound {
		t.Errorf("expected status_code 404 in error context, got %v", appErr.Context["status_code"])
	}
	if appErr.IsRetryable() {
		t.Error("404 must not be retryable")
	}
}

func TestImageFetchGateway_ServerErrorRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	gw := NewImageFetchGateway(server.Client(), "")
	_, err := gw.FetchImage(context.Background(), mustParseURL(t, server.URL), nil)
	appErr, ok := errors.AsAppContextError(err)
	if !ok {
		t.Fatalf("expected AppContextError, got %v", err)
	}
	if !appErr.IsRetryable() {
		t.Error("502 should be retryable")
	}
}

func TestImageFetchGateway_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "image/jpeg")
	}))
	defer server.Close()

	gw := NewImageFetchGateway(server.Client(), "")
	options := domain.NewImageFetchOptions()
	options.Timeout = 50 * time.Millisecond

	_, err := gw.FetchImage(context.Background(), mustParseURL(t, server.URL), options)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	appErr, ok := errors.AsAppContextError(err)
	if !ok {
		t.Fatalf("expected AppContextError, got %T", err)
	}
	if appErr.Code != errors.CodeTimeout {
		t.Errorf("expected code %s, got %s", errors.CodeTimeout, appErr.Code)
	}
	if !appErr.IsRetryable() {
		t.Error("timeouts should be retryable")
	}
}

func TestImageFetchGateway_NonImageContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	gw := NewImageFetchGateway(server.Client(), "")
	_, err := gw.FetchImage(context.Background(), mustParseURL(t, server.URL), nil)
	if err == nil {
		t.Fatal("expected error for non-image content type")
	}
	if code := errors.CodeOf(err); code != errors.CodeValidation {
		t.Errorf("expected code %s, got %s", errors.CodeValidation, code)
	}
}

func TestImageFetchGateway_SizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(bytes.Repeat([]byte{0xff}, 4096))
	}))
	defer server.Close()

	gw := NewImageFetchGateway(server.Client(), "")
	options := domain.NewImageFetchOptions()
	options.MaxSize = 1024

	_, err := gw.FetchImage(context.Background(), mustParseURL(t, server.URL), options)
	if err == nil {
		t.Fatal("expected error for oversized body")
	}
	if code := errors.CodeOf(err); code != errors.CodeValidation {
		t.Errorf("expected code %s, got %s", errors.CodeValidation, code)
	}
}

func TestImageFetchGateway_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := NewImageFetchGateway(server.Client(), "")
	if _, err := gw.FetchImage(ctx, mustParseURL(t, server.URL), nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
