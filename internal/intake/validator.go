package intake

import (
	"image"
	_ "image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Reason names the intake check a file failed. Empty means the file passed.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonExtension Reason = "extension"
	ReasonMIME      Reason = "mime"
	ReasonDecode    Reason = "decode"
)

// DefaultMaxPixels bounds the decoded image area (50 megapixels). The
// decoder allocates the full pixel buffer from the header dimensions, so
// the byte size cap alone does not bound memory.
const DefaultMaxPixels int64 = 50_000_000

var (
	DefaultAllowedExtensions = []string{"jpg", "jpeg"}
	DefaultAllowedMIMETypes  = []string{"image/jpeg", "image/jpg"}
)

// Validator checks a written file is a real JPEG: extension, sniffed content
// type, header dimensions, then a full decode.
type Validator struct {
	extensions map[string]struct{}
	mimeTypes  []string
	formats    map[string]struct{}
	maxPixels  int64
}

type ValidatorOption func(*Validator)

// WithMaxPixels caps width*height read from the image header. Values <= 0
// keep the default.
func WithMaxPixels(n int64) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxPixels = n
		}
	}
}

func NewValidator(extensions, mimeTypes []string, opts ...ValidatorOption) *Validator {
	if len(extensions) == 0 {
		extensions = DefaultAllowedExtensions
	}
	if len(mimeTypes) == 0 {
		mimeTypes = DefaultAllowedMIMETypes
	}

	v := &Validator{
		extensions: make(map[string]struct{}, len(extensions)),
		mimeTypes:  mimeTypes,
		formats:    map[string]struct{}{"jpeg": {}},
		maxPixels:  DefaultMaxPixels,
	}
	for _, ext := range extensions {
		v.extensions[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate reports whether the file at path passes every check.
func (v *Validator) Validate(path string) bool {
	return v.Check(path) == ReasonNone
}

// Check runs the checks in order and returns the first that fails. I/O
// and decode errors count as failures of the check that hit them.
func (v *Validator) Check(path string) Reason {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if _, ok := v.extensions[ext]; !ok {
		return ReasonExtension
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil || !mimetype.EqualsAny(mtype.String(), v.mimeTypes...) {
		return ReasonMIME
	}

	f, err := os.Open(path)
	if err != nil {
		return ReasonDecode
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return ReasonDecode
	}
	if _, ok := v.formats[format]; !ok {
		return ReasonDecode
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > v.maxPixels {
		return ReasonDecode
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ReasonDecode
	}
	_, format, err = image.Decode(f)
	if err != nil {
		return ReasonDecode
	}
	if _, ok := v.formats[format]; !ok {
		return ReasonDecode
	}

	return ReasonNone
}
