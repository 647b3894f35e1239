// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/wpautoblog/internal/testutil"
)

func newTestClient(opts Options) *Client {
	opts.AllowPrivate = true
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = 1000
		opts.Burst = 1000
	}
	return New(opts, testutil.TestLoggerSilent())
}

func TestCreatePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/blog/wp-json/wp/v2/posts", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "app pass", pass)

		var body PostRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Test Post", body.Title)
		assert.Equal(t, "draft", body.Status)
		assert.Equal(t, int64(7), body.FeaturedMedia)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":123,"link":"https://x/test-post"}`))
	}))
	defer srv.Close()

	c := newTestClient(Options{})
	post, err := c.CreatePost(context.Background(),
		Credentials{SiteURL: srv.URL + "/blog/", User: "admin", AppPassword: "app pass"},
		PostRequest{Title: "Test Post", Content: "<p>x</p>", Status: "draft", FeaturedMedia: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(123), post.ID)
	assert.Equal(t, "https://x/test-post", post.Link)
}

func TestCreatePost_OmitsZeroFeaturedMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		if _, ok := body["featured_media"]; ok {
			t.Error("featured_media sent without an image")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"link":"https://x/1"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(Options{}).CreatePost(context.Background(),
		Credentials{SiteURL: srv.URL}, PostRequest{Title: "t", Content: "c", Status: "publish"})
	require.NoError(t, err)
}

func TestCreatePost_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
		code      string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"code":"rest_cannot_create","message":"Sorry"}`, false, "rest_cannot_create"},
		{"bad request", http.StatusBadRequest, `oops`, false, ""},
		{"rate limited", http.StatusTooManyRequests, ``, true, ""},
		{"server error", http.StatusBadGateway, `<html>bad gateway</html>`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(Options{}).CreatePost(context.Background(),
				Credentials{SiteURL: srv.URL}, PostRequest{Title: "t"})
			require.Error(t, err)

			var se *StatusError
			require.True(t, errors.As(err, &se), "want *StatusError, got %T", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestCreatePost_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(Options{}).CreatePost(context.Background(), Credentials{SiteURL: srv.URL}, PostRequest{Title: "t"})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestCreatePost_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(Options{Timeout: 50 * time.Millisecond})
	_, err := c.CreatePost(context.Background(), Credentials{SiteURL: srv.URL}, PostRequest{Title: "t"})
	require.Error(t, err)

	var ne *NetworkError
	assert.True(t, errors.As(err, &ne), "want *NetworkError, got %T: %v", err, err)
	assert.True(t, IsRetryable(err))
}

func TestCircuitBreaker_OpensPerHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(Options{Breaker: BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Hour, Interval: time.Hour}})
	creds := Credentials{SiteURL: srv.URL}

	for range 2 {
		_, err := c.CreatePost(context.Background(), creds, PostRequest{Title: "t"})
		require.Error(t, err)
	}

	_, err := c.CreatePost(context.Background(), creds, PostRequest{Title: "t"})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(2), hits.Load())
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(Options{Breaker: BreakerSettings{ConsecutiveFailures: 1, OpenTimeout: time.Hour, Interval: time.Hour}})
	for range 3 {
		_, err := c.CreatePost(context.Background(), Credentials{SiteURL: srv.URL}, PostRequest{Title: "t"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestUploadMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/media", r.URL.Path)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="pasta-1234.jpg"`, r.Header.Get("Content-Disposition"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, "jpegdata", string(data))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":55,"source_url":"https://x/pasta.jpg"}`))
	}))
	defer srv.Close()

	media, err := newTestClient(Options{}).UploadMedia(context.Background(),
		Credentials{SiteURL: srv.URL}, "pasta-1234.jpg", "image/jpeg", []byte("jpegdata"))
	require.NoError(t, err)
	assert.Equal(t, int64(55), media.ID)
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/users/me" {
			http.NotFound(w, r)
			return
		}
		if u, p, _ := r.BasicAuth(); u != "admin" || p != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"rest_not_logged_in","message":"You are not currently logged in."}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"name":"Admin","slug":"admin"}`))
	}))
	defer srv.Close()

	c := newTestClient(Options{})

	user, err := c.TestConnection(context.Background(), Credentials{SiteURL: srv.URL, User: "admin", AppPassword: "good"})
	require.NoError(t, err)
	assert.Equal(t, "Admin", user.Name)

	_, err = c.TestConnection(context.Background(), Credentials{SiteURL: srv.URL, User: "admin", AppPassword: "bad"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "rest_not_logged_in", se.Code)
}

func TestRateLimiter_WaitsForToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"link":"l"}`))
	}))
	defer srv.Close()

	c := newTestClient(Options{RatePerSecond: 0.001, Burst: 1})
	creds := Credentials{SiteURL: srv.URL}
	_, err := c.CreatePost(context.Background(), creds, PostRequest{Title: "t"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.CreatePost(ctx, creds, PostRequest{Title: "t"})
	var ne *NetworkError
	assert.True(t, errors.As(err, &ne), "second call should fail waiting for the limiter, got %v", err)
}

func TestNormalizeSiteURL(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		wantHost string
		wantErr  bool
	}{
		{"https://blog.example.com/", "https://blog.example.com", "blog.example.com", false},
		{"https://blog.example.com/sub/wp-json/", "https://blog.example.com/sub", "blog.example.com", false},
		{"https://u:p@blog.example.com/?x=1#f", "https://blog.example.com", "blog.example.com", false},
		{"  ", "", "", true},
		{"ftp://blog.example.com", "", "", true},
		{"http://localhost:8080", "", "", true},
		{"http://10.0.0.5", "", "", true},
	}
	for _, tt := range tests {
		got, host, err := normalizeSiteURL(tt.in, false)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantHost, host)
	}
}

func TestValidateSiteURL_AllowPrivate(t *testing.T) {
	got, err := ValidateSiteURL(context.Background(), "http://localhost:8080/", true)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got)

	_, err = ValidateSiteURL(context.Background(), "http://127.0.0.1/", false)
	assert.Error(t, err)
}
