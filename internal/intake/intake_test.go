package intake

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestValidator_Check(t *testing.T) {
	valid := redJPEG(t, 100, 100)

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	tests := []struct {
		name string
		file string
		data []byte
		want Reason
	}{
		{"valid jpg", "photo.jpg", valid, ReasonNone},
		{"valid jpeg upper ext", "photo.JPEG", valid, ReasonNone},
		{"png extension", "photo.png", valid, ReasonExtension},
		{"no extension", "photo", valid, ReasonExtension},
		{"plain text named jpg", "app.jpg", []byte("this is not an image"), ReasonMIME},
		{"png content named jpg", "photo.jpg", pngBuf.Bytes(), ReasonMIME},
		{"truncated jpeg", "photo.jpg", valid[:len(valid)/3], ReasonDecode},
	}

	v := NewValidator(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			assert.Equal(t, tt.want, v.Check(path))
			assert.Equal(t, tt.want == ReasonNone, v.Validate(path))
		})
	}
}

// withDimensions rewrites the SOF0 header of an encoded JPEG so it declares
// w×h while the scan data stays tiny.
func withDimensions(t *testing.T, data []byte, w, h uint16) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	sof := bytes.Index(out, []byte{0xFF, 0xC0})
	require.Positive(t, sof, "no SOF0 marker")
	out[sof+5], out[sof+6] = byte(h>>8), byte(h)
	out[sof+7], out[sof+8] = byte(w>>8), byte(w)
	return out
}

func TestValidator_RejectsOversizedDimensions(t *testing.T) {
	bomb := withDimensions(t, redJPEG(t, 8, 8), 30000, 30000)
	require.Less(t, len(bomb), 4096)

	path := writeFile(t, "bomb.jpg", bomb)
	assert.Equal(t, ReasonDecode, NewValidator(nil, nil).Check(path))
}

func TestValidator_MaxPixels(t *testing.T) {
	path := writeFile(t, "photo.jpg", redJPEG(t, 100, 100))

	assert.Equal(t, ReasonNone, NewValidator(nil, nil, WithMaxPixels(100*100)).Check(path))
	assert.Equal(t, ReasonDecode, NewValidator(nil, nil, WithMaxPixels(100*100-1)).Check(path))
	assert.Equal(t, ReasonNone, NewValidator(nil, nil, WithMaxPixels(0)).Check(path))
}

func TestValidator_MissingFile(t *testing.T) {
	v := NewValidator([]string{"jpg"}, []string{"image/jpeg"})
	assert.False(t, v.Validate(filepath.Join(t.TempDir(), "gone.jpg")))
}

func TestNameGenerator_Generate(t *testing.T) {
	g := NewNameGenerator("")
	g.Now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

	name := g.Generate("Scan.JPG")
	assert.Regexp(t, regexp.MustCompile(`^loan_app_20240309_140507_[0-9a-f]{8}\.jpg$`), name)

	other := g.Generate("Scan.JPG")
	assert.NotEqual(t, name, other)

	assert.Regexp(t, `^loan_app_20240309_140507_[0-9a-f]{8}\.photo$`, g.Generate("photo"))
	assert.Regexp(t, `^loan_app_20240309_140507_[0-9a-f]{8}$`, g.Generate(""))
}

func TestNameGenerator_Prefix(t *testing.T) {
	g := NewNameGenerator("coop")
	assert.Regexp(t, `^coop_\d{8}_\d{6}_[0-9a-f]{8}\.jpeg$`, g.Generate("a.jpeg"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"My cool movie.mov":          "My_cool_movie.mov",
		"../../../etc/passwd":        "etc_passwd",
		"i contain cool ümläuts.txt": "i_contain_cool_umlauts.txt",
		"C:\\Users\\me\\scan.jpg":    "C_Users_me_scan.jpg",
		"..":                         "",
		"":                           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestUploads_SaveTo(t *testing.T) {
	data := redJPEG(t, 10, 10)
	dir := t.TempDir()

	src := writeFile(t, "source.jpg", data)
	uploads := []Upload{
		NewLocalFile(src),
		NewBytesUpload("mem.jpg", data),
	}

	for i, u := range uploads {
		size, err := u.Size()
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), size)

		dst := filepath.Join(dir, string(rune('a'+i))+".jpg")
		require.NoError(t, u.SaveTo(dst))

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, data, got)

		// never overwrite an existing file
		assert.Error(t, u.SaveTo(dst))
	}
}

func TestLocalFile_Missing(t *testing.T) {
	f := NewLocalFile(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Equal(t, "nope.jpg", f.Name())
	_, err := f.Size()
	assert.Error(t, err)
	assert.Error(t, f.SaveTo(filepath.Join(t.TempDir(), "out.jpg")))
}
