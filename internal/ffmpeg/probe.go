package ffmpeg

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

const probeTimeout = 15 * time.Second

var ErrInvalidProbe = errors.New("invalid ffprobe output")

type MediaInfo struct {
	Duration   float64 `json:"duration"`
	Size       int64   `json:"size"`
	BitRate    int64   `json:"bit_rate"`
	FormatName string  `json:"format_name"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FrameRate  string  `json:"frame_rate,omitempty"`
}

// HasVideo reports whether the file carries a video stream.
func (m *MediaInfo) HasVideo() bool {
	return m.VideoCodec != ""
}

// Probe runs ffprobe on filePath.
func Probe(filePath string) (*MediaInfo, error) {
	out, err := ffmpeggo.ProbeWithTimeout(filePath, probeTimeout, ffmpeggo.KwArgs{})
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}
	return ParseProbe(out)
}

// ParseProbe extracts MediaInfo from ffprobe's JSON output. The first video
// and first audio stream win.
func ParseProbe(data string) (*MediaInfo, error) {
	if !gjson.Valid(data) {
		return nil, ErrInvalidProbe
	}
	root := gjson.Parse(data)
	format := root.Get("format")
	if !format.Exists() {
		return nil, ErrInvalidProbe
	}

	// ffprobe reports numbers as strings
	info := &MediaInfo{
		Duration:   format.Get("duration").Float(),
		Size:       format.Get("size").Int(),
		BitRate:    format.Get("bit_rate").Int(),
		FormatName: format.Get("format_name").String(),
	}

	if v := root.Get(`streams.#(codec_type=="video")`); v.Exists() {
		info.VideoCodec = v.Get("codec_name").String()
		info.Width = int(v.Get("width").Int())
		info.Height = int(v.Get("height").Int())
		info.FrameRate = v.Get("r_frame_rate").String()
	}
	if a := root.Get(`streams.#(codec_type=="audio")`); a.Exists() {
		info.AudioCodec = a.Get("codec_name").String()
	}
	return info, nil
}
