package database

import (
	"context"
	"fmt"
	"sync"
)

var (
	assetStoreFactory func() AssetStore
	backendName       string
	initialized       bool
	providerMu        sync.RWMutex
)

// RegisterBackend registers the active record store constructor.
// This is called by cmd after the chosen backend package has been initialized,
// keeping database free of imports on its backends.
func RegisterBackend(name string, store func() AssetStore) {
	providerMu.Lock()
	defer providerMu.Unlock()
	assetStoreFactory = store
	backendName = name
	initialized = true
}

// ResetBackend clears the registered backend.
func ResetBackend() {
	providerMu.Lock()
	defer providerMu.Unlock()
	assetStoreFactory = nil
	backendName = ""
	initialized = false
}

// IsInitialized returns whether a backend has been registered.
func IsInitialized() bool {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return initialized
}

// BackendName returns the name of the registered backend.
func BackendName() string {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return backendName
}

// GetAssetStore returns the registered record store
func GetAssetStore(ctx context.Context) (AssetStore, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if !initialized {
		return nil, fmt.Errorf("record store not initialized: DATABASE_DRIVER and DATABASE_URL are required")
	}
	if assetStoreFactory == nil {
		return nil, fmt.Errorf("record store %s not registered", backendName)
	}
	return assetStoreFactory(), nil
}

// GetAssetReader returns the registered record store as a read-only view
func GetAssetReader(ctx context.Context) (AssetReader, error) {
	store, err := GetAssetStore(ctx)
	if err != nil {
		return nil, err
	}
	return store, nil
}
