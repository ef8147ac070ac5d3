package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileRotator writes to a log file and rotates it by size. Rotated
// files keep a timestamp suffix; cleanup of old files is left to the
// host.
type fileRotator struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	file     *os.File
	size     int64
}

func newFileRotator(path string, maxSizeMB int64) (*fileRotator, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &fileRotator{
		path:     path,
		maxBytes: maxSizeMB << 20,
		file:     f,
		size:     info.Size(),
	}, nil
}

func (r *fileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *fileRotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	rotated := fmt.Sprintf("%s.%s", r.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(r.path, rotated); err != nil {
		return err
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}

func (r *fileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
