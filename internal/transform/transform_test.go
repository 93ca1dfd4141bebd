package transform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCommand(t *testing.T) {
	tests := []struct {
		command    string
		photoCount int
		want       bool
	}{
		{CommandYoung, 1, true},
		{CommandOld, 1, true},
		{CommandMan, 1, true},
		{CommandWoman, 1, true},
		{CommandFusion, 1, false},
		{CommandFusion, 2, true},
		{CommandFusion, 3, true},
		{CommandYoung, 2, false},
		{CommandYoung, 0, false},
		{"Sparkle", 1, false},
	}
	for _, tt := range tests {
		got := ValidCommand(tt.command, tt.photoCount)
		assert.Equal(t, tt.want, got, "%s with %d photos", tt.command, tt.photoCount)
	}
}

func TestClientTransform(t *testing.T) {
	var gotCommand string
	var gotPhotos [][]byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transform", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotCommand = r.FormValue("command")
		for _, header := range r.MultipartForm.File["photos"] {
			file, err := header.Open()
			require.NoError(t, err)
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			file.Close()
			gotPhotos = append(gotPhotos, data)
		}

		w.Write([]byte("result-bytes"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 10*time.Second)
	result, err := client.Transform(context.Background(),
		[][]byte{[]byte("photo-a"), []byte("photo-b")}, CommandFusion)
	require.NoError(t, err)

	assert.Equal(t, []byte("result-bytes"), result)
	assert.Equal(t, CommandFusion, gotCommand)
	assert.Equal(t, [][]byte{[]byte("photo-a"), []byte("photo-b")}, gotPhotos)
}

func TestClientTransformServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "no face detected"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 10*time.Second)
	_, err := client.Transform(context.Background(), [][]byte{[]byte("photo")}, CommandYoung)

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "no face detected", svcErr.Reason)
}

func TestClientTransformOpaqueFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 10*time.Second)
	_, err := client.Transform(context.Background(), [][]byte{[]byte("photo")}, CommandYoung)

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Contains(t, svcErr.Reason, "502")
}
