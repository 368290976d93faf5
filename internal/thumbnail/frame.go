package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const defaultFrameRate = 25.0

// FromVideoFile grabs a single frame from a local video file and persists it
// as a JPEG thumbnail, returning the stored filename. Callers treat any error
// as "no thumbnail" and carry on.
func (f *Fetcher) FromVideoFile(ctx context.Context, path string) (string, error) {
	fps, frames, err := f.probe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", path, err)
	}
	if fps <= 0 {
		fps = defaultFrameRate
	}

	frameNo := targetFrame(fps, frames)
	seek := float64(frameNo) / fps

	tmp, err := os.CreateTemp("", "frame-*.jpg")
	if err != nil {
		return "", err
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	cmd := exec.CommandContext(ctx, f.ffmpeg,
		"-ss", strconv.FormatFloat(seek, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-q:v", "4",
		"-y", tmp.Name())
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg: %v: %s", err, strings.TrimSpace(string(out)))
	}

	frame, err := os.Open(tmp.Name())
	if err != nil {
		return "", err
	}
	defer frame.Close()
	info, err := frame.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("ffmpeg produced no frame for %s", path)
	}

	name := fmt.Sprintf("video_%s.jpg", f.now().Format(tsLayout))
	if err := f.thumbs.Save(ctx, name, frame, info.Size(), "image/jpeg"); err != nil {
		return "", err
	}
	return name, nil
}

// probe returns the frame rate and total frame count of the first video
// stream. A zero value means ffprobe couldn't tell.
func (f *Fetcher) probe(ctx context.Context, path string) (fps float64, frames int, err error) {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,nb_frames",
		"-of", "json",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe: %w", err)
	}

	var payload struct {
		Streams []struct {
			RFrameRate string `json:"r_frame_rate"`
			NbFrames   string `json:"nb_frames"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, 0, fmt.Errorf("ffprobe output: %w", err)
	}
	if len(payload.Streams) == 0 {
		return 0, 0, fmt.Errorf("no video stream in %s", path)
	}

	fps = parseRate(payload.Streams[0].RFrameRate)
	frames, _ = strconv.Atoi(payload.Streams[0].NbFrames)
	return fps, frames, nil
}

// targetFrame picks one second in, clamped to the midpoint so very short
// clips don't overshoot. Unknown frame counts land on frame zero.
func targetFrame(fps float64, totalFrames int) int {
	half := 0
	if totalFrames > 0 {
		half = totalFrames / 2
	}
	n := int(fps)
	if n > half {
		n = half
	}
	return n
}

// parseRate handles ffprobe rates like "30000/1001" or "25".
func parseRate(s string) float64 {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}
