package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadService_Save(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, "/uploads", 1<<20, 100, 150)

	up, err := svc.Save(context.Background(), bytes.NewReader(pngBytes(t, 400, 600)))
	require.NoError(t, err)

	assert.Equal(t, "image/png", up.ContentType)
	assert.True(t, strings.HasSuffix(up.Name, ".png"))
	assert.Equal(t, "/uploads/"+up.Name, up.URL)
	assert.Equal(t, "/uploads/thumbs/"+up.Name, up.ThumbnailURL)

	_, err = os.Stat(filepath.Join(dir, up.Name))
	require.NoError(t, err)

	thumb, err := imaging.Open(filepath.Join(dir, "thumbs", up.Name))
	require.NoError(t, err)
	assert.Equal(t, 100, thumb.Bounds().Dx())
	assert.Equal(t, 150, thumb.Bounds().Dy())
}

func TestUploadService_Rejects(t *testing.T) {
	svc := NewUploadService(t.TempDir(), "/uploads", 64, 10, 10)

	_, err := svc.Save(context.Background(), strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = svc.Save(context.Background(), bytes.NewReader(bytes.Repeat([]byte{0}, 65)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploadService_RejectsHugeCanvas(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, "/uploads", 1<<20, 10, 10)

	// a tiny file whose header declares 100000x100000 pixels
	data := pngBytes(t, 4, 4)
	binary.BigEndian.PutUint32(data[16:], 100000)
	binary.BigEndian.PutUint32(data[20:], 100000)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))

	_, err := svc.Save(context.Background(), bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadService_ThumbnailFailureRemovesOriginal(t *testing.T) {
	orig := saveImage
	saveImage = func(img image.Image, filename string) error {
		return errors.New("disk full")
	}
	t.Cleanup(func() { saveImage = orig })

	dir := t.TempDir()
	svc := NewUploadService(dir, "/uploads", 1<<20, 10, 10)

	_, err := svc.Save(context.Background(), bytes.NewReader(pngBytes(t, 20, 20)))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.IsDir(), "left behind %s", e.Name())
	}
}
