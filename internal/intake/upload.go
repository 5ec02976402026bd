// Package intake holds the file side of a loan application submission:
// the upload abstraction, storage naming and the JPEG checks.
package intake

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Upload is a file offered by a caller. Name is the client-supplied filename
// and may be empty.
type Upload interface {
	Name() string
	Size() (int64, error)
	Open() (io.ReadCloser, error)
	SaveTo(path string) error
}

// LocalFile is an Upload backed by a file already on disk (CLI, workers).
type LocalFile struct {
	path string
}

func NewLocalFile(path string) *LocalFile {
	return &LocalFile{path: path}
}

func (f *LocalFile) Name() string {
	if f.path == "" {
		return ""
	}
	return filepath.Base(f.path)
}

func (f *LocalFile) Size() (int64, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

func (f *LocalFile) SaveTo(path string) error {
	return saveFrom(f, path)
}

// MultipartFile adapts an HTTP multipart part.
type MultipartFile struct {
	header *multipart.FileHeader
}

func NewMultipartFile(fh *multipart.FileHeader) *MultipartFile {
	return &MultipartFile{header: fh}
}

func (f *MultipartFile) Name() string { return f.header.Filename }

func (f *MultipartFile) Size() (int64, error) { return f.header.Size, nil }

func (f *MultipartFile) Open() (io.ReadCloser, error) {
	return f.header.Open()
}

func (f *MultipartFile) SaveTo(path string) error {
	return saveFrom(f, path)
}

// BytesUpload is an in-memory Upload.
type BytesUpload struct {
	name string
	data []byte
}

func NewBytesUpload(name string, data []byte) *BytesUpload {
	return &BytesUpload{name: name, data: data}
}

func (b *BytesUpload) Name() string { return b.name }

func (b *BytesUpload) Size() (int64, error) { return int64(len(b.data)), nil }

func (b *BytesUpload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (b *BytesUpload) SaveTo(path string) error {
	return saveFrom(b, path)
}

// saveFrom copies the upload to path. The destination must not exist.
func saveFrom(u Upload, path string) error {
	src, err := u.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}

	return dst.Close()
}
