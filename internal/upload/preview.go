package upload

import (
	"bytes"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/kk-code-lab/rbrowse/internal/blob"
	"github.com/kk-code-lab/rbrowse/internal/fs"
)

const thumbnailSize = 160

// buildPreview decodes image files into a PNG thumbnail stored in blobs.
// Anything else, or an image that fails to decode, gets no preview.
func buildPreview(blobs *blob.Store, f File) (blob.Handle, string) {
	if blobs == nil || f.Open == nil || fs.CategoryOf(f.Name) != fs.CategoryImage {
		return "", ""
	}

	src, err := f.Open()
	if err != nil {
		return "", ""
	}
	defer func() {
		_ = src.Close()
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", ""
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ""
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", mt.String()
	}
	thumb := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", mt.String()
	}
	return blobs.Create(buf.Bytes(), "image/png"), mt.String()
}
