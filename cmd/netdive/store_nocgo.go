//go:build !cgo

package main

import (
	"log"

	"github.com/dusk-indust/netdive/internal/store"
)

// openStore falls back to the in-memory archive in CGO-free builds; the
// KuzuDB backend needs the C driver.
func openStore(path string) (store.Store, error) {
	if path != "" {
		log.Printf("store path %q ignored: persistent archive requires a cgo build", path)
	}
	return store.NewMemStore(), nil
}
