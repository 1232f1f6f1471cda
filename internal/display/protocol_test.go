package display

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/presspad/internal/hid"
)

func TestChunkFrameFullDisplay(t *testing.T) {
	encoder := NewFrameEncoder(DefaultMaxPayload)
	rect := image.Rect(0, 0, 128, 64)
	data := make([]byte, 16*64)
	for i := range data {
		data[i] = byte(i)
	}

	frames := encoder.ChunkFrame(rect, data)

	// 16 bytes per row, 3 rows per 54 byte payload
	require.Len(t, frames, 22)

	var rows int
	var joined []byte
	for i, f := range frames {
		assert.Equal(t, hid.DisplayCmdPartial, f.Command)
		assert.Equal(t, uint16(0), f.X)
		assert.Equal(t, uint16(i*3), f.Y)
		assert.Equal(t, uint16(128), f.Width)
		assert.LessOrEqual(t, len(f.Data), DefaultMaxPayload)
		rows += int(f.Height)
		joined = append(joined, f.Data...)
	}
	assert.Equal(t, 64, rows)
	assert.Equal(t, data, joined)
	assert.Equal(t, uint16(1), frames[len(frames)-1].Height)
}

func TestChunkFrameRegionOffset(t *testing.T) {
	encoder := NewFrameEncoder(4)
	rect := image.Rect(8, 20, 24, 23)

	frames := encoder.ChunkFrame(rect, []byte{1, 2, 3, 4, 5, 6})

	require.Len(t, frames, 2)
	assert.Equal(t, uint16(8), frames[0].X)
	assert.Equal(t, uint16(20), frames[0].Y)
	assert.Equal(t, uint16(2), frames[0].Height)
	assert.Equal(t, []byte{1, 2, 3, 4}, frames[0].Data)
	assert.Equal(t, uint16(22), frames[1].Y)
	assert.Equal(t, []byte{5, 6}, frames[1].Data)
}

func TestChunkFrameWideRow(t *testing.T) {
	frames := NewFrameEncoder(2).ChunkFrame(image.Rect(0, 0, 32, 2), make([]byte, 8))
	assert.Len(t, frames, 2, "one row per frame when a row exceeds the payload")
}

func TestChunkFrameEmpty(t *testing.T) {
	assert.Nil(t, NewFrameEncoder(0).ChunkFrame(image.Rectangle{}, nil))
}

func TestEncodeClear(t *testing.T) {
	assert.Equal(t, hid.DisplayCmdClear, NewFrameEncoder(0).EncodeClear().Command)
}
