package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"shopflow/constants"
	"shopflow/internal/common"
)

// Reader loads image bytes for OCR and upload, converting HEIC captures to
// JPEG on the fly. Phone cameras in the shop shoot HEIC, which neither the
// OCR service nor a public Drive link consumer can use directly.
type Reader struct {
	Runner    Runner
	Converter string // "heif-convert" | "magick" | "sips"
}

func NewReader(r Runner, converter string) *Reader {
	if r == nil {
		r = ExecRunner{}
	}
	if converter == "" {
		converter = "magick"
	}
	return &Reader{Runner: r, Converter: converter}
}

// ReadImage returns the image bytes for path and the effective filename to
// use remotely (HEIC sources are renamed to .jpg). An unreadable or
// unconvertible file maps to ErrInvalidMedia.
func (r *Reader) ReadImage(ctx context.Context, path string) ([]byte, string, error) {
	name := filepath.Base(path)
	ext := constants.NormalizeExt(filepath.Ext(path))

	if ext != "heic" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", common.NewAppError("MEDIA_ERROR", fmt.Sprintf("read %s", path), common.ErrInvalidMedia)
		}
		return data, name, nil
	}

	out, cleanup, err := r.convertHEIC(ctx, path)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, "", common.NewAppError("MEDIA_ERROR", fmt.Sprintf("convert %s", path), common.ErrInvalidMedia)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, "", common.NewAppError("MEDIA_ERROR", fmt.Sprintf("read converted %s", out), common.ErrInvalidMedia)
	}
	jpgName := name[:len(name)-len(filepath.Ext(name))] + ".jpg"
	return data, jpgName, nil
}

// convertHEIC converts a HEIC file to a temporary JPEG using the chosen
// converter. Returns (outPath, cleanup, err); call cleanup() to remove temp
// files.
func (r *Reader) convertHEIC(ctx context.Context, in string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "sf-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "image.jpg")

	switch r.Converter {
	case "heif-convert":
		if _, errb, err2 := r.Runner.Run(ctx, "heif-convert", in, out); err2 != nil {
			return "", cleanup, fmt.Errorf("heif-convert failed: %w: %s", err2, errb)
		}
	case "magick":
		if _, errb, err2 := r.Runner.Run(ctx, "magick", in, out); err2 != nil {
			return "", cleanup, fmt.Errorf("magick convert failed: %w: %s", err2, errb)
		}
	case "sips":
		if _, errb, err2 := r.Runner.Run(ctx, "sips", "-s", "format", "jpeg", in, "--out", out); err2 != nil {
			return "", cleanup, fmt.Errorf("sips convert failed: %w: %s", err2, errb)
		}
	default:
		return "", cleanup, fmt.Errorf("HEIC not supported: set converter to one of: heif-convert | magick | sips")
	}

	if _, statErr := os.Stat(out); statErr != nil {
		return "", cleanup, fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}
	return out, cleanup, nil
}
