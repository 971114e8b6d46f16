// Package mmap maps input files read-only so large documents are parsed
// without first being copied onto the heap.
package mmap

import (
	"fmt"
	"os"
	"sync"
)

// Reader is a read-only view of a whole file.
type Reader struct {
	file   *os.File
	data   []byte
	mapped bool

	mu sync.Mutex
}

// Open maps filename. Platforms without mmap, and empty files, fall back to
// reading the file into memory.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r := &Reader{file: file}
	if stat.Size() == 0 {
		r.data = []byte{}
		return r, nil
	}

	data, mapped, err := mapFile(file, int(stat.Size()))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to map file: %w", err)
	}
	r.data, r.mapped = data, mapped
	return r, nil
}

// Bytes returns the file contents. The slice is invalid after Close.
func (r *Reader) Bytes() []byte {
	return r.data
}

// Len returns the file size.
func (r *Reader) Len() int {
	return len(r.data)
}

// Mapped reports whether the contents are memory mapped rather than read.
func (r *Reader) Mapped() bool {
	return r.mapped
}

// Close unmaps the file and closes it. Closing twice is a no-op.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.mapped && r.data != nil {
		err = unmap(r.data)
	}
	r.data = nil
	r.mapped = false

	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}
	return err
}
