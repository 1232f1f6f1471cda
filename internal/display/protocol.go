package display

import (
	"image"

	"github.com/pleimann/presspad/internal/hid"
)

// DefaultMaxPayload is a 64 byte HID report minus the display header
const DefaultMaxPayload = 54

// FrameEncoder splits packed pixel data into display reports
type FrameEncoder struct {
	maxPayload int
}

// NewFrameEncoder creates an encoder for reports carrying at most maxPayload
// bytes of pixel data
func NewFrameEncoder(maxPayload int) *FrameEncoder {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &FrameEncoder{maxPayload: maxPayload}
}

// ChunkFrame splits the packed pixels of rect into partial frames of whole
// rows. A row wider than the payload still gets one frame.
func (e *FrameEncoder) ChunkFrame(rect image.Rectangle, data []byte) []*hid.DisplayFrame {
	bytesPerRow := (rect.Dx() + 7) / 8
	if bytesPerRow == 0 || rect.Dy() == 0 {
		return nil
	}

	rowsPerChunk := e.maxPayload / bytesPerRow
	if rowsPerChunk == 0 {
		rowsPerChunk = 1
	}

	var frames []*hid.DisplayFrame
	for row := 0; row < rect.Dy(); row += rowsPerChunk {
		rows := min(rowsPerChunk, rect.Dy()-row)
		start := row * bytesPerRow
		end := min((row+rows)*bytesPerRow, len(data))
		if start >= end {
			break
		}

		frames = append(frames, hid.NewPartialFrame(
			uint16(rect.Min.X), uint16(rect.Min.Y+row),
			uint16(rect.Dx()), uint16(rows),
			data[start:end],
		))
	}
	return frames
}

// EncodeClear creates a display clear command
func (e *FrameEncoder) EncodeClear() *hid.DisplayFrame {
	return hid.NewClearCommand()
}
