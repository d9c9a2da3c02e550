package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"log"
	"math"
	"strings"

	_ "github.com/kolesa-team/go-webp/decoder" // register WebP decoder
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ParseDataURL - split a data URL into its base64 payload and MIME type
func ParseDataURL(dataURL string) (base64Data string, mimeType string, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", "", fmt.Errorf("not a data URL")
	}

	commaIdx := strings.Index(dataURL, ",")
	if commaIdx < 0 {
		return "", "", fmt.Errorf("malformed data URL: missing payload separator")
	}

	header := dataURL[len("data:"):commaIdx]
	if !strings.HasSuffix(header, ";base64") {
		return "", "", fmt.Errorf("malformed data URL: expected base64 encoding")
	}

	mimeType = strings.TrimSuffix(header, ";base64")
	if mimeType == "" {
		return "", "", fmt.Errorf("malformed data URL: missing MIME type")
	}

	return dataURL[commaIdx+1:], mimeType, nil
}

// ToDataURL - build a data URL from a base64 payload and MIME type
func ToDataURL(base64Data, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64Data)
}

// ConvertImageToBase64 - encode image bytes as base64
func ConvertImageToBase64(imageData []byte) string {
	return base64.StdEncoding.EncodeToString(imageData)
}

// MakeWebPThumbnail - decode an image and produce a small WebP preview
func MakeWebPThumbnail(imageData []byte, maxDim int, quality float32) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = ResizeImage(img, maxDim, maxDim)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	log.Printf("✅ Thumbnail: %s %d bytes → webp %d bytes", format, len(imageData), webpBuffer.Len())
	return webpBuffer.Bytes(), nil
}

// MergeImages - merge multiple images into a grid (no resize, originals as-is)
func MergeImages(images [][]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to merge")
	}

	if len(images) == 1 {
		return images[0], nil
	}

	// decode (WebP, PNG, JPEG auto-detected)
	decodedImages := []image.Image{}
	for i, imgData := range images {
		img, _, err := image.Decode(bytes.NewReader(imgData))
		if err != nil {
			log.Printf("⚠️  Failed to decode image %d: %v", i, err)
			continue
		}
		decodedImages = append(decodedImages, img)
	}

	if len(decodedImages) == 0 {
		return nil, fmt.Errorf("no valid images to merge")
	}

	// grid layout (2x2, 2x3, ...)
	numImages := len(decodedImages)
	cols := int(math.Ceil(math.Sqrt(float64(numImages))))
	rows := int(math.Ceil(float64(numImages) / float64(cols)))

	maxCellWidth := 0
	maxCellHeight := 0
	for _, img := range decodedImages {
		bounds := img.Bounds()
		if bounds.Dx() > maxCellWidth {
			maxCellWidth = bounds.Dx()
		}
		if bounds.Dy() > maxCellHeight {
			maxCellHeight = bounds.Dy()
		}
	}

	totalWidth := cols * maxCellWidth
	totalHeight := rows * maxCellHeight

	merged := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))

	for idx, img := range decodedImages {
		row := idx / cols
		col := idx % cols

		x := col * maxCellWidth
		y := row * maxCellHeight

		bounds := img.Bounds()
		// center within the cell
		xOffset := x + (maxCellWidth-bounds.Dx())/2
		yOffset := y + (maxCellHeight-bounds.Dy())/2

		draw.Draw(merged,
			image.Rect(xOffset, yOffset, xOffset+bounds.Dx(), yOffset+bounds.Dy()),
			img, image.Point{0, 0}, draw.Src)
	}

	log.Printf("✅ Merged %d images into %dx%d grid (%dx%d total)", len(decodedImages), rows, cols, totalWidth, totalHeight)

	var buf bytes.Buffer
	if err := png.Encode(&buf, merged); err != nil {
		return nil, fmt.Errorf("failed to encode merged image: %w", err)
	}

	return buf.Bytes(), nil
}

// ResizeImage - fit an image into the target box, keeping aspect ratio
func ResizeImage(src image.Image, targetWidth, targetHeight int) image.Image {
	srcBounds := src.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()

	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := math.Min(scaleX, scaleY)

	newWidth := int(float64(srcWidth) * scale)
	newHeight := int(float64(srcHeight) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))

	// nearest neighbor
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			srcX := int(float64(x) / scale)
			srcY := int(float64(y) / scale)
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}

	return dst
}
