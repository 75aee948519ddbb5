package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/logging"
)

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
	"bmp":  {0x42, 0x4D},
}

// Validator probes inline image payloads and enforces the configured limits.
type Validator struct {
	limits config.ImageConfig
	logger *logging.Logger
}

func NewValidator(limits config.ImageConfig, logger *logging.Logger) *Validator {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &Validator{
		limits: limits,
		logger: logger,
	}
}

// ProbeBase64 decodes an inline payload and returns its Info.
func (v *Validator) ProbeBase64(data, declaredFormat, filename string) (Info, error) {
	if data == "" {
		return Info{}, fmt.Errorf("missing image payload")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Info{}, fmt.Errorf("decode base64: %w", err)
	}
	return v.Probe(raw, declaredFormat, filename)
}

// Probe decodes the image header, validates limits and returns its Info.
func (v *Validator) Probe(raw []byte, declaredFormat, filename string) (Info, error) {
	if len(raw) == 0 {
		return Info{}, fmt.Errorf("empty image payload")
	}

	if v.limits.MaxFileSize > 0 && int64(len(raw)) > v.limits.MaxFileSize {
		v.logger.Warn(
			"oversized image rejected: size=%d max_size=%d format=%s",
			len(raw), v.limits.MaxFileSize, declaredFormat,
		)
		return Info{}, fmt.Errorf(
			"file size exceeds limit: %d bytes (max %d bytes)",
			len(raw), v.limits.MaxFileSize,
		)
	}

	if declaredFormat != "" && !v.isFormatAllowed(declaredFormat) {
		return Info{}, fmt.Errorf("unsupported format: %s", declaredFormat)
	}

	cfg, actualFormat, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		if declaredFormat != "" && !matchesSignature(raw, declaredFormat) {
			v.logger.Warn(
				"file signature mismatch: declared_format=%s header=%x",
				declaredFormat, raw[:min(len(raw), 16)],
			)
		}
		return Info{}, fmt.Errorf("decode image config: %w", err)
	}

	if v.limits.MaxWidth > 0 && cfg.Width > v.limits.MaxWidth ||
		v.limits.MaxHeight > 0 && cfg.Height > v.limits.MaxHeight {
		return Info{}, fmt.Errorf(
			"dimensions exceed limit: %dx%d (max %dx%d)",
			cfg.Width, cfg.Height, v.limits.MaxWidth, v.limits.MaxHeight,
		)
	}

	format := actualFormat
	if format == "" {
		format = declaredFormat
	}

	info := Info{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		SizeBytes: int64(len(raw)),
		Filename:  filename,
	}

	v.logger.Debug(
		"image probe ok: format=%s width=%d height=%d size=%d",
		info.Format, info.Width, info.Height, info.SizeBytes,
	)

	return info, nil
}

func (v *Validator) isFormatAllowed(format string) bool {
	allowed := v.limits.AllowedFormats
	if len(allowed) == 0 {
		return true
	}
	format = strings.ToLower(format)
	for _, candidate := range allowed {
		if strings.ToLower(candidate) == format {
			return true
		}
	}
	return false
}

func matchesSignature(raw []byte, format string) bool {
	signature, ok := imageSignatures[strings.ToLower(format)]
	if !ok || len(signature) == 0 {
		return true
	}
	if len(raw) < len(signature) {
		return false
	}
	return bytes.Equal(signature, raw[:len(signature)])
}

// FormatFromFilename guesses the image format from a filename extension.
func FormatFromFilename(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "png"
	case strings.HasSuffix(lower, ".gif"):
		return "gif"
	case strings.HasSuffix(lower, ".webp"):
		return "webp"
	case strings.HasSuffix(lower, ".bmp"):
		return "bmp"
	default:
		return ""
	}
}
