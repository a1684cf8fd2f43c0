package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// FFmpegExtractor извлекает кадр-постер внешним процессом ffmpeg.
// Само декодирование видео остается на стороне helper-процесса.
type FFmpegExtractor struct {
	// Binary — путь к бинарю ffmpeg; пустой означает поиск в PATH
	Binary string
}

// ExtractFrame прогоняет видео через ffmpeg и возвращает один JPEG-кадр
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, video []byte) ([]byte, error) {
	binary := e.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	var out bytes.Buffer
	var errOut bytes.Buffer

	cmd := exec.CommandContext(ctx, binary,
		"-i", "pipe:0",
		"-vframes", "1",
		"-q:v", "2",
		"-f", "image2",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(video)
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %w (%s)", err, truncate(errOut.String(), 200))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame output")
	}
	return out.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
