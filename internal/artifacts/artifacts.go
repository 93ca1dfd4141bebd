// Package artifacts stores staged input photos and computed result images.
package artifacts

import "context"

// Store is the artifact blob store. Names are flat (e.g. "7.jpg",
// "1+2#Fusion.jpg").
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Remove(ctx context.Context, names ...string) error
	Clear(ctx context.Context) error
}
