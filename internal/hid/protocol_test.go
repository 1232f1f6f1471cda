package hid

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(reportID, eventType byte, mask uint16, ts uint32) []byte {
	buf := make([]byte, 8)
	buf[0] = reportID
	buf[1] = eventType
	binary.LittleEndian.PutUint16(buf[2:4], mask)
	binary.LittleEndian.PutUint32(buf[4:8], ts)
	return buf
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    *Event
		wantErr bool
	}{
		{
			name: "press single button",
			data: report(ReportIDButtonEvent, EventTypePress, 0x0001, 12345),
			want: &Event{Type: Press, ButtonMask: 0x0001, Timestamp: 12345},
		},
		{
			name: "release leaves two buttons held",
			data: report(ReportIDButtonEvent, EventTypeRelease, 0x0005, 99999),
			want: &Event{Type: Release, ButtonMask: 0x0005, Timestamp: 99999},
		},
		{
			name: "trailing padding is ignored",
			data: append(report(ReportIDButtonEvent, EventTypePress, 0x0080, 1), make([]byte, 56)...),
			want: &Event{Type: Press, ButtonMask: 0x0080, Timestamp: 1},
		},
		{
			name:    "data too short",
			data:    []byte{0x01, 0x01, 0x00},
			wantErr: true,
		},
		{
			name:    "wrong report ID",
			data:    report(0xFF, EventTypePress, 0, 0),
			wantErr: true,
		},
		{
			name:    "unknown event type",
			data:    report(ReportIDButtonEvent, 0xFF, 0, 0),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventEncodeParsesBack(t *testing.T) {
	ev := &Event{Type: Release, ButtonMask: 0x8001, Timestamp: 42}
	got, err := ParseEvent(ev.Encode())
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestMaskButtons(t *testing.T) {
	tests := []struct {
		name string
		mask uint16
		want []int
	}{
		{"no buttons", 0x0000, nil},
		{"button 0", 0x0001, []int{0}},
		{"button 7", 0x0080, []int{7}},
		{"buttons 0, 2, 4", 0x0015, []int{0, 2, 4}},
		{"all 16 buttons", 0xFFFF, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskButtons(tt.mask))
			assert.Equal(t, tt.want, (&Event{ButtonMask: tt.mask}).PressedButtons())
		})
	}
}

func TestDisplayFrameEncode(t *testing.T) {
	t.Run("full frame", func(t *testing.T) {
		data := NewFullFrame(128, 64, []byte{0xAA, 0xBB, 0xCC}).Encode()
		require.Len(t, data, 13)
		assert.Equal(t, ReportIDDisplay, data[0])
		assert.Equal(t, DisplayCmdFullFrame, data[1])
		assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(data[2:4]))
		assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(data[4:6]))
		assert.Equal(t, uint16(128), binary.LittleEndian.Uint16(data[6:8]))
		assert.Equal(t, uint16(64), binary.LittleEndian.Uint16(data[8:10]))
		assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, data[10:])
	})

	t.Run("partial frame", func(t *testing.T) {
		data := NewPartialFrame(10, 20, 32, 16, []byte{0x11, 0x22}).Encode()
		assert.Equal(t, DisplayCmdPartial, data[1])
		assert.Equal(t, uint16(10), binary.LittleEndian.Uint16(data[2:4]))
		assert.Equal(t, uint16(20), binary.LittleEndian.Uint16(data[4:6]))
		assert.Equal(t, uint16(32), binary.LittleEndian.Uint16(data[6:8]))
		assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[8:10]))
		assert.Equal(t, []byte{0x11, 0x22}, data[10:])
	})

	t.Run("clear command is header only", func(t *testing.T) {
		data := NewClearCommand().Encode()
		assert.Len(t, data, 10)
		assert.Equal(t, DisplayCmdClear, data[1])
	})
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "press", Press.String())
	assert.Equal(t, "release", Release.String())
	assert.Equal(t, "unknown(99)", EventType(99).String())
}

func TestUnique(t *testing.T) {
	devices := []DeviceInfo{
		{VendorID: 0x239A, ProductID: 0x8108, Product: "Macropad", Path: "a"},
		{VendorID: 0x239A, ProductID: 0x8108, Product: "Macropad", Path: "b"},
		{VendorID: 0, ProductID: 0, Product: "Virtual"},
		{VendorID: 0x046D, ProductID: 0xC52B, Product: "Receiver"},
	}

	got := Unique(devices)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Path)
	assert.Equal(t, uint16(0x046D), got[1].VendorID)
}
