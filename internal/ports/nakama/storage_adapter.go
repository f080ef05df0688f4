package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"blackjack/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// storageModule is the part of runtime.NakamaModule the storage adapter uses.
type storageModule interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error
}

// storedValue wraps a raw record; the storage engine only accepts JSON objects.
type storedValue struct {
	Value string `json:"value"`
}

// NakamaStorageAdapter implements ports.KVStore over one user's objects in
// the storage engine.
type NakamaStorageAdapter struct {
	nk     storageModule
	userID string
}

// NewNakamaStorageAdapter creates a store for userID's records.
func NewNakamaStorageAdapter(nk storageModule, userID string) *NakamaStorageAdapter {
	return &NakamaStorageAdapter{nk: nk, userID: userID}
}

func (a *NakamaStorageAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: StorageCollection,
		Key:        key,
		UserID:     a.userID,
	}})
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(objects) == 0 {
		return "", false, nil
	}
	var stored storedValue
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &stored); err != nil {
		return "", false, fmt.Errorf("failed to unwrap %s: %w", key, err)
	}
	return stored.Value, true, nil
}

func (a *NakamaStorageAdapter) Set(ctx context.Context, key, value string) error {
	_, err := a.write(ctx, key, value, "")
	return err
}

// SetIfAbsent writes with version "*", which the engine rejects when the
// object already exists.
func (a *NakamaStorageAdapter) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	return a.write(ctx, key, value, "*")
}

func (a *NakamaStorageAdapter) Remove(ctx context.Context, key string) error {
	err := a.nk.StorageDelete(ctx, []*runtime.StorageDelete{{
		Collection: StorageCollection,
		Key:        key,
		UserID:     a.userID,
	}})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (a *NakamaStorageAdapter) write(ctx context.Context, key, value, version string) (bool, error) {
	if a.userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	wrapped, err := json.Marshal(storedValue{Value: value})
	if err != nil {
		return false, fmt.Errorf("failed to wrap %s: %w", key, err)
	}
	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      StorageCollection,
		Key:             key,
		UserID:          a.userID,
		Value:           string(wrapped),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	if err != nil {
		if version == "*" && errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to write %s: %w", key, err)
	}
	return true, nil
}

var _ ports.KVStore = (*NakamaStorageAdapter)(nil)
