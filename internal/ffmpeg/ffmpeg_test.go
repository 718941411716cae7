package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZacxDev/livegif/pkg/types"
)

const iphoneProbe = `{
  "streams": [
    {"codec_type": "audio", "codec_name": "aac"},
    {
      "codec_type": "video",
      "codec_name": "hevc",
      "width": 1920,
      "height": 1440,
      "r_frame_rate": "30/1",
      "avg_frame_rate": "30000/1001",
      "nb_frames": "89",
      "duration": "2.969633",
      "side_data_list": [{"side_data_type": "Display Matrix", "rotation": -90}]
    }
  ],
  "format": {"duration": "3.000000"}
}`

func TestParseProbe(t *testing.T) {
	m, err := parseProbe(iphoneProbe)
	require.NoError(t, err)

	assert.Equal(t, "hevc", m.Codec)
	assert.Equal(t, 1920, m.Width)
	assert.Equal(t, 1440, m.Height)
	assert.InDelta(t, 29.97, m.FrameRate, 0.01)
	assert.Equal(t, 89, m.FrameCount)
	assert.InDelta(t, 2.9696, m.Duration, 0.001)
	assert.Equal(t, 270, m.Rotation)

	w, h := m.DisplaySize()
	assert.Equal(t, 1440, w)
	assert.Equal(t, 1920, h)
}

func TestParseProbeFallbacks(t *testing.T) {
	probe := `{
	  "streams": [{"codec_type": "video", "codec_name": "h264", "width": 640, "height": 480,
	    "r_frame_rate": "25/1", "avg_frame_rate": "0/0", "tags": {"rotate": "180"}}],
	  "format": {"duration": "4.0"}
	}`

	m, err := parseProbe(probe)
	require.NoError(t, err)
	assert.Equal(t, 25.0, m.FrameRate)
	assert.Equal(t, 4.0, m.Duration)
	assert.Equal(t, 100, m.FrameCount)
	assert.Equal(t, 180, m.Rotation)
}

func TestParseProbeErrors(t *testing.T) {
	for name, probe := range map[string]string{
		"invalid json":  `{`,
		"no streams":    `{"streams": []}`,
		"audio only":    `{"streams": [{"codec_type": "audio"}]}`,
		"no dimensions": `{"streams": [{"codec_type": "video"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseProbe(probe)
			assert.Error(t, err)
		})
	}
}

func TestDescriptor(t *testing.T) {
	m := &VideoMetadata{Duration: 3, Width: 10, Height: 10}
	d := m.Descriptor(30)
	assert.Equal(t, types.StreamDescriptor{
		NominalFrameRate:   30,
		NominalTotalFrames: 90,
		Orientation:        types.OrientationUp,
	}, d)

	m = &VideoMetadata{FrameRate: 60, FrameCount: 120}
	assert.Equal(t, 60.0, m.Descriptor(30).NominalFrameRate)
	assert.Equal(t, 120, m.Descriptor(30).NominalTotalFrames)
}

func TestParseRate(t *testing.T) {
	assert.InDelta(t, 29.97, parseRate("30000/1001"), 0.001)
	assert.Equal(t, 24.0, parseRate("24"))
	assert.Equal(t, 0.0, parseRate("0/0"))
	assert.Equal(t, 0.0, parseRate("abc"))
}

func TestEnsureExtension(t *testing.T) {
	assert.Equal(t, "clip.gif", EnsureExtension("clip.MOV", ".gif"))
	assert.Equal(t, "clip.gif", EnsureExtension("clip.gif", ".gif"))
	assert.Equal(t, "clip.gif", EnsureExtension("clip", ".gif"))
}
