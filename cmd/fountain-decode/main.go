// Command fountain-decode is the receiving half of the external-collaborator
// CLI: it reads an animated-image file or a directory of still images and
// reconstructs the original file via pkg/transfer.
package main

import (
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fountaincodec/fountain/pkg/observability"
	"github.com/fountaincodec/fountain/pkg/transfer"
)

const (
	exitOK         = 0
	exitIOError    = 1
	exitUsageError = 2
	exitExhausted  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var output string

	cmd := &cobra.Command{
		Use:   "fountain-decode [options] <input>",
		Short: "Decode a carousel of QR-code frames back into a file",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&output, "output", "", "path to write the reconstructed file (default: the transferred file name)")

	exitCode := exitOK
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		exitCode = decode(args[0], output)
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsageError
	}
	return exitCode
}

func decode(inputPath string, output string) int {
	logger, _ := observability.SetupLogger(observability.DefaultLogConfig())
	defer logger.Sync()

	frames, err := loadFrames(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOError
	}
	if len(frames) == 0 {
		fmt.Fprintln(os.Stderr, "no frames found in input")
		return exitUsageError
	}

	dec := transfer.NewDecoder()
	var final transfer.Status
	for i, frame := range frames {
		status, err := dec.Feed(frame)
		if err != nil {
			logger.Debug("frame decode error", zap.Int("frame", i), zap.Error(err))
			continue
		}
		if status.Kind == transfer.Progress {
			logger.Info("progress", zap.Int("blocks_done", status.BlocksDone), zap.Int("blocks_total", status.BlocksTotal))
		}
		if status.Kind == transfer.Done {
			final = status
			break
		}
	}

	if final.Kind != transfer.Done {
		fmt.Fprintln(os.Stderr, "input exhausted before reconstruction completed")
		return exitExhausted
	}

	outPath := output
	if outPath == "" {
		outPath = final.FileName
	}
	if err := os.WriteFile(outPath, final.Payload, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Sprintf("writing %s: %v", outPath, err))
		return exitIOError
	}
	logger.Info("decoded", zap.String("file_name", final.FileName), zap.Int("bytes", len(final.Payload)))
	return exitOK
}

// loadFrames reads an animated GIF (every frame), a single PNG (read as one
// still frame; PNG animation chunks are not read), or a directory of still
// .png images sorted by file name, so frame-%08d.png files come back in
// frame order. Decoding is order-independent, so directory order is a human
// convenience, not a protocol requirement.
func loadFrames(path string) ([]image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".png") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		frames := make([]image.Image, 0, len(names))
		for _, name := range names {
			f, err := os.Open(filepath.Join(path, name))
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", name, err)
			}
			img, err := png.Decode(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("decoding %s: %w", name, err)
			}
			frames = append(frames, img)
		}
		return frames, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".gif") {
		g, err := gif.DecodeAll(f)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		frames := make([]image.Image, len(g.Image))
		for i, p := range g.Image {
			frames[i] = p
		}
		return frames, nil
	}

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return []image.Image{img}, nil
}
