package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FrameExtractor supplies video frames as image files. Implementations
// walk the frames of a video in order, stepping by the sampling rate,
// and call save with each frame's index within the video. save returns
// the destination path for the frame image, or false to stop early.
type FrameExtractor interface {
	ExtractFrames(videoFile string, sampling int, save func(frameIdx int) (string, bool)) error
}

// DirectoryExtractor reads frames that were already split out of the
// videos, e.g. by ffmpeg. The frames of each video are expected under
// Root/<video name without extension>/, ordered by file name.
type DirectoryExtractor struct {
	Root string
}

var _ FrameExtractor = (*DirectoryExtractor)(nil)

func (d *DirectoryExtractor) ExtractFrames(videoFile string, sampling int, save func(int) (string, bool)) error {
	base := filepath.Base(videoFile)
	dir := filepath.Join(d.Root, strings.TrimSuffix(base, filepath.Ext(base)))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("pipeline: read frame dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for idx := 0; idx < len(names); idx += sampling {
		target, ok := save(idx)
		if !ok {
			return nil
		}
		if err := copyFile(filepath.Join(dir, names[idx]), target); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("pipeline: open frame %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("pipeline: create frame %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("pipeline: copy frame to %s: %w", dst, err)
	}
	return out.Close()
}
