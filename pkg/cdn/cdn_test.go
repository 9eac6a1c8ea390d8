package cdn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderURL(t *testing.T) {
	b := NewBuilder("https://res.example.com/", "healthmate")

	tests := []struct {
		name     string
		publicID string
		t        Transform
		want     string
	}{
		{
			name:     "no transform",
			publicID: "doctors/jane",
			want:     "https://res.example.com/healthmate/image/upload/doctors/jane",
		},
		{
			name:     "full transform",
			publicID: "doctors/jane",
			t:        Transform{Width: 300, Height: 200, Crop: "fill", Quality: "auto", Format: "webp"},
			want:     "https://res.example.com/healthmate/image/upload/w_300,h_200,c_fill,q_auto/doctors/jane.webp",
		},
		{
			name:     "escapes segments",
			publicID: "/records/scan 1/",
			want:     "https://res.example.com/healthmate/image/upload/records/scan%201",
		},
		{
			name:     "empty id",
			publicID: "",
			t:        Transform{Width: 10},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.URL(tt.publicID, tt.t))
		})
	}
}

func TestThumbnail(t *testing.T) {
	b := NewBuilder("https://res.example.com", "hm")
	assert.Equal(t, "https://res.example.com/hm/image/upload/w_200,h_200,c_fill,q_auto/d1", b.Thumbnail("d1"))
}
