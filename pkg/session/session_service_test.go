package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/entities"
)

type memSessionRepository struct {
	sessions map[string]time.Time
}

func newMemSessionRepository() *memSessionRepository {
	return &memSessionRepository{sessions: map[string]time.Time{}}
}

func (m *memSessionRepository) Upsert(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		m.sessions[id] = time.Now()
	}
	return nil
}

func (m *memSessionRepository) GetByID(_ context.Context, id string) (*entities.TempSession, error) {
	if _, ok := m.sessions[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &entities.TempSession{ID: id}, nil
}

func (m *memSessionRepository) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *memSessionRepository) ListCreatedBefore(_ context.Context, cutoff time.Time) ([]*entities.TempSession, error) {
	var out []*entities.TempSession
	for id, created := range m.sessions {
		if created.Before(cutoff) {
			out = append(out, &entities.TempSession{ID: id})
		}
	}
	return out, nil
}

type memReceiptStore struct {
	receipts map[string][]*entities.Receipt
}

func storeKey(owner domain.Owner) string {
	return owner.Type + ":" + owner.ID
}

func (m *memReceiptStore) GetByOwner(_ context.Context, owner domain.Owner) ([]*entities.Receipt, error) {
	return m.receipts[storeKey(owner)], nil
}

func (m *memReceiptStore) CountByOwner(_ context.Context, owner domain.Owner) (int64, error) {
	return int64(len(m.receipts[storeKey(owner)])), nil
}

func (m *memReceiptStore) DeleteByOwner(_ context.Context, owner domain.Owner) error {
	delete(m.receipts, storeKey(owner))
	return nil
}

type memInsightStore struct {
	deleted []domain.Owner
}

func (m *memInsightStore) DeleteByOwner(_ context.Context, owner domain.Owner) error {
	m.deleted = append(m.deleted, owner)
	return nil
}

type memBlobStore struct {
	objects map[string][]byte
}

func (m *memBlobStore) UploadFile(_ context.Context, key string, data []byte, _ string) error {
	m.objects[key] = data
	return nil
}

func (m *memBlobStore) GetFile(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (m *memBlobStore) CopyFile(_ context.Context, srcKey, dstKey string) error {
	m.objects[dstKey] = m.objects[srcKey]
	return nil
}

func (m *memBlobStore) DeleteFile(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memBlobStore) FileExists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memBlobStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/" + key, nil
}

func TestEnsureSession(t *testing.T) {
	repo := newMemSessionRepository()
	service := NewSessionService(repo, &memReceiptStore{receipts: map[string][]*entities.Receipt{}}, &memInsightStore{}, &memBlobStore{objects: map[string][]byte{}}, zap.NewNop())

	require.NoError(t, service.EnsureSession(context.Background(), "sess-1"))
	created := repo.sessions["sess-1"]

	// calling again with the same id is a no-op
	require.NoError(t, service.EnsureSession(context.Background(), "sess-1"))
	assert.Equal(t, created, repo.sessions["sess-1"])
	assert.Len(t, repo.sessions, 1)

	err := service.EnsureSession(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrSessionRequired))
}

func TestGetSessionReceipts(t *testing.T) {
	repo := newMemSessionRepository()
	repo.sessions["sess-1"] = time.Now()
	owner := domain.SessionOwner("sess-1")
	receipts := &memReceiptStore{receipts: map[string][]*entities.Receipt{
		storeKey(owner): {{FilePath: "temp/sess-1/1-a.png"}},
	}}
	service := NewSessionService(repo, receipts, &memInsightStore{}, &memBlobStore{objects: map[string][]byte{}}, zap.NewNop())

	got, err := service.GetSessionReceipts(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = service.GetSessionReceipts(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestDeleteSession(t *testing.T) {
	repo := newMemSessionRepository()
	repo.sessions["sess-1"] = time.Now()
	owner := domain.SessionOwner("sess-1")
	receipts := &memReceiptStore{receipts: map[string][]*entities.Receipt{
		storeKey(owner): {{FilePath: "temp/sess-1/1-a.png"}},
	}}
	service := NewSessionService(repo, receipts, &memInsightStore{}, &memBlobStore{objects: map[string][]byte{}}, zap.NewNop())

	err := service.DeleteSession(context.Background(), "sess-1")
	assert.True(t, errors.Is(err, domain.ErrReceiptsStillExist))
	assert.Contains(t, repo.sessions, "sess-1")

	require.NoError(t, receipts.DeleteByOwner(context.Background(), owner))
	require.NoError(t, service.DeleteSession(context.Background(), "sess-1"))
	assert.NotContains(t, repo.sessions, "sess-1")
}

func TestCleanupExpired(t *testing.T) {
	repo := newMemSessionRepository()
	repo.sessions["old"] = time.Now().Add(-48 * time.Hour)
	repo.sessions["fresh"] = time.Now()

	oldOwner := domain.SessionOwner("old")
	blobs := &memBlobStore{objects: map[string][]byte{
		"temp/old/1-a.png": []byte("a"),
		"temp/old/2-b.png": []byte("b"),
	}}
	receipts := &memReceiptStore{receipts: map[string][]*entities.Receipt{
		storeKey(oldOwner): {
			{FilePath: "temp/old/1-a.png"},
			{FilePath: "temp/old/2-b.png"},
		},
	}}
	insights := &memInsightStore{}
	service := NewSessionService(repo, receipts, insights, blobs, zap.NewNop())

	removed, err := service.CleanupExpired(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.NotContains(t, repo.sessions, "old")
	assert.Contains(t, repo.sessions, "fresh")
	assert.Empty(t, blobs.objects)
	assert.Empty(t, receipts.receipts)
	require.Len(t, insights.deleted, 1)
	assert.Equal(t, oldOwner, insights.deleted[0])
}
