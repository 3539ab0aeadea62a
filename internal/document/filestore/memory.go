package filestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"trustline/internal/document/models"
	"trustline/pkg/platform/sentinel"
)

// MemoryStore holds file bytes in process. Used in development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	prefix  string
	objects map[string][]byte
}

func NewMemory(prefix string) *MemoryStore {
	return &MemoryStore{prefix: prefix, objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, upload models.Upload) (*models.FileRef, error) {
	var buf bytes.Buffer
	if upload.Body != nil {
		if _, err := io.Copy(&buf, upload.Body); err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
	}
	contentType := strings.TrimSpace(upload.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := newKey(m.prefix, upload.Name)
	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	return &models.FileRef{
		Reference: key,
		Name:      upload.Name,
		Size:      int64(buf.Len()),
		MimeType:  contentType,
	}, nil
}

func (m *MemoryStore) Delete(_ context.Context, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, reference)
	return nil
}

// Get returns the stored bytes for reference.
func (m *MemoryStore) Get(_ context.Context, reference string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[reference]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return bytes.Clone(data), nil
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
