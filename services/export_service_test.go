package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/corpfest/secret-santa/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	lastKey         string
	lastContentType string
	lastBody        []byte
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.lastKey = key
	f.lastContentType = contentType
	f.lastBody = body
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (f *fakeUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestExportResults_UploadsSnapshot(t *testing.T) {
	svc, _ := newTestService(testUser(1, "Anna", "Design"), testUser(2, "Boris", "IT"))
	registerAll(t, svc, map[int]string{1: "books", 2: "coffee"})

	uploader := &fakeUploader{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	export := NewExportService(svc, uploader, logger)

	result, err := export.ExportResults(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Key, "exports/secret-santa-"))
	assert.True(t, strings.HasSuffix(result.Key, ".json"))
	assert.Equal(t, "https://cdn.example.com/"+result.Key, result.URL)
	assert.Equal(t, "application/json", uploader.lastContentType)

	var snapshot AdminState
	require.NoError(t, json.Unmarshal(uploader.lastBody, &snapshot))
	assert.Equal(t, 2, snapshot.Stats.Total)
	assert.Len(t, snapshot.Participants, 2)
}

func TestExportResults_UnavailableWithoutUploader(t *testing.T) {
	svc, _ := newTestService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	export := NewExportService(svc, nil, logger)

	_, err := export.ExportResults(context.Background())
	assert.ErrorIs(t, err, ErrExportUnavailable)
}
