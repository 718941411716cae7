package ffmpeg

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ZacxDev/livegif/pkg/types"
)

// VideoMetadata contains metadata about a video file
type VideoMetadata struct {
	Duration   float64
	Width      int
	Height     int
	Codec      string
	FrameRate  float64
	FrameCount int
	Rotation   int
}

// Processor wraps FFmpeg functionality
type Processor struct {
	verbose bool
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(verbose bool) *Processor {
	return &Processor{
		verbose: verbose,
	}
}

// GetVideoMetadata retrieves metadata about a video file
func (p *Processor) GetVideoMetadata(inputPath string) (*VideoMetadata, error) {
	probe, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSourceUnreadable, "probe %s: %v", inputPath, err)
	}

	metadata, err := parseProbe(probe)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSourceUnreadable, "probe %s: %v", inputPath, err)
	}

	if p.verbose {
		log.Printf("Probed %s: %dx%d %s @ %.3f fps, %d frames, %.2fs, rotation %d\n",
			inputPath, metadata.Width, metadata.Height, metadata.Codec,
			metadata.FrameRate, metadata.FrameCount, metadata.Duration, metadata.Rotation)
	}
	return metadata, nil
}

func parseProbe(probe string) (*VideoMetadata, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}

	streams, ok := data["streams"].([]interface{})
	if !ok || len(streams) == 0 {
		return nil, fmt.Errorf("no streams found in video")
	}

	var videoStream map[string]interface{}
	for _, stream := range streams {
		s, ok := stream.(map[string]interface{})
		if !ok {
			continue
		}
		if codecType, _ := s["codec_type"].(string); codecType == "video" {
			videoStream = s
			break
		}
	}

	if videoStream == nil {
		return nil, fmt.Errorf("no video stream found")
	}

	metadata := &VideoMetadata{}
	metadata.Codec, _ = videoStream["codec_name"].(string)
	if w, ok := videoStream["width"].(float64); ok {
		metadata.Width = int(w)
	}
	if h, ok := videoStream["height"].(float64); ok {
		metadata.Height = int(h)
	}
	if metadata.Width <= 0 || metadata.Height <= 0 {
		return nil, fmt.Errorf("video stream has no dimensions")
	}

	// Prefer the average rate; r_frame_rate is the container timebase guess
	// and overstates variable-rate phone footage.
	for _, key := range []string{"avg_frame_rate", "r_frame_rate"} {
		if rate, ok := videoStream[key].(string); ok {
			if fps := parseRate(rate); fps > 0 {
				metadata.FrameRate = fps
				break
			}
		}
	}

	metadata.Duration = parseFloatField(videoStream, "duration")
	if metadata.Duration == 0 {
		if format, ok := data["format"].(map[string]interface{}); ok {
			metadata.Duration = parseFloatField(format, "duration")
		}
	}

	if nbFrames, ok := videoStream["nb_frames"].(string); ok {
		if frames, err := strconv.Atoi(strings.TrimSpace(nbFrames)); err == nil {
			metadata.FrameCount = frames
		}
	}
	if metadata.FrameCount == 0 && metadata.Duration > 0 && metadata.FrameRate > 0 {
		metadata.FrameCount = int(math.Round(metadata.Duration * metadata.FrameRate))
	}

	metadata.Rotation = parseRotation(videoStream)
	return metadata, nil
}

// parseRate turns "30000/1001" or "25" into frames per second
func parseRate(rate string) float64 {
	if nums := strings.Split(rate, "/"); len(nums) == 2 {
		num, err1 := strconv.ParseFloat(nums[0], 64)
		den, err2 := strconv.ParseFloat(nums[1], 64)
		if err1 == nil && err2 == nil && den != 0 {
			return num / den
		}
		return 0
	}
	fps, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
	if err != nil {
		return 0
	}
	return fps
}

func parseFloatField(m map[string]interface{}, key string) float64 {
	s, ok := m[key].(string)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseRotation reads the display rotation from the legacy rotate tag or the
// display matrix side data, normalized to 0, 90, 180 or 270.
func parseRotation(stream map[string]interface{}) int {
	rotation := 0
	if tags, ok := stream["tags"].(map[string]interface{}); ok {
		if r, ok := tags["rotate"].(string); ok {
			if v, err := strconv.Atoi(strings.TrimSpace(r)); err == nil {
				rotation = v
			}
		}
	}
	if sideData, ok := stream["side_data_list"].([]interface{}); ok {
		for _, sd := range sideData {
			entry, ok := sd.(map[string]interface{})
			if !ok {
				continue
			}
			if r, ok := entry["rotation"].(float64); ok {
				rotation = int(r)
			}
		}
	}
	return ((rotation % 360) + 360) % 360
}

// DisplaySize returns the frame size after ffmpeg applies the rotation
func (m *VideoMetadata) DisplaySize() (int, int) {
	if m.Rotation == 90 || m.Rotation == 270 {
		return m.Height, m.Width
	}
	return m.Width, m.Height
}

// Descriptor builds the stream descriptor. fallbackRate is used when the
// container carries no usable rate. Decoded frames are already rotated, so
// the orientation is always up.
func (m *VideoMetadata) Descriptor(fallbackRate float64) types.StreamDescriptor {
	rate := m.FrameRate
	if rate <= 0 {
		rate = fallbackRate
	}
	total := m.FrameCount
	if total == 0 && m.Duration > 0 {
		total = int(math.Round(m.Duration * rate))
	}
	return types.StreamDescriptor{
		NominalFrameRate:   rate,
		NominalTotalFrames: total,
		Orientation:        types.OrientationUp,
	}
}

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// EnsureExtension swaps any known media extension on filename for extension
func EnsureExtension(filename, extension string) string {
	extensions := []string{".mp4", ".webm", ".mkv", ".avi", ".mov", ".m4v", ".gif"}
	lower := strings.ToLower(filename)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			filename = filename[:len(filename)-len(ext)]
			break
		}
	}
	return filename + extension
}
