package drive

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"
)

// Frame is one decoded camera image plus the JPEG bytes served to viewers
// and written to recorded sessions. Frames are immutable once published.
type Frame struct {
	Seq        uint64
	Image      image.Image
	JPEG       []byte
	Format     string
	CapturedAt time.Time
}

// DecodeFrame decodes raw upload bytes. JPEG uploads are kept as-is; any
// other supported format is re-encoded to JPEG at the given quality.
func DecodeFrame(raw []byte, quality int) (*Frame, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	data := raw
	if format != "jpeg" {
		data, err = EncodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
	}

	return &Frame{
		Image:      img,
		JPEG:       data,
		Format:     format,
		CapturedAt: time.Now(),
	}, nil
}

// EncodeJPEG encodes img with the given quality (1-100, 0 means default).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
