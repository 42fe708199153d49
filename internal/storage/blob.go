package storage

import "io"

// Sink stores rendered exports by key.
type Sink interface {
	Put(key string, r io.Reader) (string, error) // returns the cleaned key
	Get(key string) (io.ReadCloser, error)
	URL(key string) (string, error) // file:// for the filesystem sink
}
