package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayStatus(t *testing.T) {
	cases := []struct {
		name   string
		stock  int64
		active bool
		want   string
	}{
		{"in stock active", 5, true, DisplayStatusAvailable},
		{"in stock inactive", 5, false, DisplayStatusUnavailable},
		{"zero stock overrides active", 0, true, DisplayStatusOutOfStock},
		{"zero stock inactive", 0, false, DisplayStatusOutOfStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Product{Stock: tc.stock, IsActive: tc.active}.DisplayStatus())
		})
	}
}

func TestDetectImageMIME(t *testing.T) {
	assert.Equal(t, MIMEPNG, DetectImageMIME([]byte("\x89PNG\r\n\x1a\nrest")))
	assert.Equal(t, MIMEJPEG, DetectImageMIME([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}))
	assert.Equal(t, MIMEGIF, DetectImageMIME([]byte("GIF89a....")))
	assert.Equal(t, MIMEGIF, DetectImageMIME([]byte("GIF87a....")))
	assert.Equal(t, MIMEWEBP, DetectImageMIME([]byte("RIFF\x24\x00\x00\x00WEBPVP8 ")))

	// 不明・短すぎはjpeg
	assert.Equal(t, MIMEJPEG, DetectImageMIME([]byte("hello world")))
	assert.Equal(t, MIMEJPEG, DetectImageMIME([]byte("RIFF")))
	assert.Equal(t, MIMEJPEG, DetectImageMIME(nil))
}

func TestIsAllowedImageFile(t *testing.T) {
	for _, n := range []string{"a.png", "b.JPG", "c.jpeg", "d.gif", "e.webp"} {
		assert.True(t, IsAllowedImageFile(n), n)
	}
	for _, n := range []string{"a.bmp", "noext", "x.png.exe", ""} {
		assert.False(t, IsAllowedImageFile(n), n)
	}
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "", DataURI(MIMEPNG, nil))
	assert.Equal(t, "data:image/gif;base64,R0lGODlh", DataURI("", []byte("GIF89a")))
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.False(t, OrderStatus("PAID").Valid())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.True(t, OrderStatusApprove.IsTerminal())
	assert.True(t, OrderStatusCancel.IsTerminal())
}

func TestParseGender(t *testing.T) {
	g, ok := ParseGender("male")
	assert.True(t, ok)
	assert.Equal(t, GenderMale, g)

	g, ok = ParseGender("Perempuan")
	assert.True(t, ok)
	assert.Equal(t, GenderFemale, g)

	_, ok = ParseGender("other")
	assert.False(t, ok)
}

func TestUser_IsAdminAndFullName(t *testing.T) {
	u := User{Role: RoleAdmin, FirstName: "Budi", LastName: ""}
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "Budi", u.FullName())
	assert.False(t, User{Role: RoleUser}.IsAdmin())
}
