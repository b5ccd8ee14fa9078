//go:build cgo

package main

import (
	"github.com/dusk-indust/netdive/internal/store"
)

// openStore returns a file-backed KuzuDB archive when a path is configured,
// or an in-memory archive for one-shot runs.
func openStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemStore(), nil
	}
	return store.NewKuzuFileStore(path)
}
