// Command fountain-encode is the external-collaborator CLI that turns a
// file into a QR carousel, rendered to the terminal, an animated GIF, or
// a directory of still PNGs. It consumes only pkg/transfer's and pkg/qr's
// operations, never reaching into pkg/raptorq or pkg/packet directly.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fountaincodec/fountain/pkg/observability"
	"github.com/fountaincodec/fountain/pkg/qr"
	"github.com/fountaincodec/fountain/pkg/transfer"
)

const (
	exitOK         = 0
	exitIOError    = 1
	exitUsageError = 2
)

type options struct {
	terminal      bool
	gifOutputFile string
	imageOutDir   string
	intervalMs    int
	chunkSize     uint16
	pixelScale    uint8
	qrEcc         string
	noCarousel    bool
	mime          string
	configPath    string
}

func main() {
	os.Exit(run())
}

func run() int {
	var opt options

	cmd := &cobra.Command{
		Use:   "fountain-encode [options] <input-file>",
		Short: "Encode a file into a carousel of QR-code frames",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&opt.terminal, "terminal", false, "render the carousel to the terminal")
	cmd.Flags().StringVar(&opt.gifOutputFile, "gif-output-file", "", "write an animated GIF to this path")
	cmd.Flags().StringVar(&opt.imageOutDir, "image-output-dir", "", "write a directory of still PNG frames")
	cmd.Flags().IntVar(&opt.intervalMs, "interval", 200, "milliseconds between frames")
	cmd.Flags().Uint16Var(&opt.chunkSize, "chunk-size", 0, "max packet payload bytes (0 = default)")
	cmd.Flags().Uint8Var(&opt.pixelScale, "pixel-scale", 0, "QR raster upscale factor (0 = default)")
	cmd.Flags().StringVar(&opt.qrEcc, "qr-ecc", "", "QR error-correction level: L, M, Q, or H")
	cmd.Flags().BoolVar(&opt.noCarousel, "no-carousel", false, "stop after one full pass instead of looping forever")
	cmd.Flags().StringVar(&opt.mime, "mime", "", "MIME type hint carried in the Anchor")
	cmd.Flags().StringVar(&opt.configPath, "config", "", "optional YAML config overlay")

	exitCode := exitOK
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		exitCode = encode(cmd, args[0], opt)
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return exitUsageError
	}
	return exitCode
}

func encode(cmd *cobra.Command, inputPath string, opt options) int {
	logger, _ := observability.SetupLogger(observability.DefaultLogConfig())
	defer logger.Sync()

	targets := 0
	if opt.terminal {
		targets++
	}
	if opt.gifOutputFile != "" {
		targets++
	}
	if opt.imageOutDir != "" {
		targets++
	}
	if targets != 1 {
		fmt.Fprintln(os.Stderr, errorStyle.Render("exactly one of --terminal, --gif-output-file, --image-output-dir is required"))
		return exitUsageError
	}

	fc, err := loadFileConfig(opt.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("loading config: %v", err)))
		return exitUsageError
	}

	cfg := buildConfig(cmd, opt, fc)

	intervalMs := opt.intervalMs
	if fc.IntervalMs != 0 && !cmd.Flags().Changed("interval") {
		intervalMs = fc.IntervalMs
	}

	payload, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("reading %s: %v", inputPath, err)))
		return exitIOError
	}

	cfg.MimeHint = opt.mime
	enc, err := transfer.New(payload, filepath.Base(inputPath), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("invalid input: %v", err)))
		return exitUsageError
	}
	logger.Info("encoder ready",
		zap.Uint32("transfer_id", enc.TransferID()),
		zap.Uint8("num_source_blocks", enc.Oti().NumSourceBlocks),
		zap.Uint16("symbol_size", enc.Oti().SymbolSize),
	)

	interval := time.Duration(intervalMs) * time.Millisecond
	frameCount := 0
	if opt.noCarousel {
		frameCount = enc.SinglePassPacketCount()
	}

	switch {
	case opt.terminal:
		return runTerminal(enc, interval, frameCount)
	case opt.gifOutputFile != "":
		return writeGIF(enc, opt.gifOutputFile, interval, frameCount)
	default:
		return writeImageDir(enc, opt.imageOutDir, frameCount)
	}
}

func buildConfig(cmd *cobra.Command, opt options, fc fileConfig) transfer.Config {
	cfg := transfer.DefaultConfig()
	if fc.ChunkSize != 0 {
		cfg.ChunkSize = fc.ChunkSize
	}
	if fc.AnchorEvery != 0 {
		cfg.AnchorEvery = fc.AnchorEvery
	}
	if fc.PixelScale != 0 {
		cfg.PixelScale = fc.PixelScale
	}
	if fc.QrEcc != "" {
		cfg.QrEcc = parseLevel(fc.QrEcc)
	}

	if cmd.Flags().Changed("chunk-size") && opt.chunkSize != 0 {
		cfg.ChunkSize = opt.chunkSize
	}
	if cmd.Flags().Changed("pixel-scale") && opt.pixelScale != 0 {
		cfg.PixelScale = opt.pixelScale
	}
	if cmd.Flags().Changed("qr-ecc") {
		cfg.QrEcc = parseLevel(opt.qrEcc)
	}
	return cfg
}

func parseLevel(s string) qr.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return qr.LevelL
	case "M":
		return qr.LevelM
	case "Q":
		return qr.LevelQ
	case "H":
		return qr.LevelH
	default:
		return qr.LevelL
	}
}

func runTerminal(enc *transfer.Encoder, interval time.Duration, frameCount int) int {
	fmt.Println(titleStyle.Render("fountain-encode") + infoStyle.Render(fmt.Sprintf(" transfer_id=%d", enc.TransferID())))
	i := 0
	for frameCount == 0 || i < frameCount {
		raster, err := enc.NextRaster()
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("rendering frame: %v", err)))
			return exitIOError
		}
		fmt.Print("\x1b[2J\x1b[H")
		fmt.Println(renderRasterANSI(raster))
		i++
		if frameCount == 0 || i < frameCount {
			time.Sleep(interval)
		}
	}
	return exitOK
}

func renderRasterANSI(r qr.Raster) string {
	var b strings.Builder
	for y := 0; y < r.Height; y += 2 {
		for x := 0; x < r.Width; x++ {
			top := r.At(x, y)
			bottom := y+1 < r.Height && r.At(x, y+1)
			b.WriteString(halfBlock(top, bottom))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// halfBlock renders two vertically stacked pixels as one terminal cell
// using the Unicode half-block characters, doubling vertical resolution.
func halfBlock(top, bottom bool) string {
	switch {
	case top && bottom:
		return blackStyle.Render("█")
	case top:
		return "▀"
	case bottom:
		return "▄"
	default:
		return whiteStyle.Render(" ")
	}
}

func writeGIF(enc *transfer.Encoder, path string, interval time.Duration, frameCount int) int {
	if frameCount == 0 {
		frameCount = enc.SinglePassPacketCount()
	}
	palette := color.Palette{color.White, color.Black}

	g := &gif.GIF{}
	delay := int(interval / (10 * time.Millisecond))
	if delay <= 0 {
		delay = 1
	}

	for i := 0; i < frameCount; i++ {
		raster, err := enc.NextRaster()
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("rendering frame %d: %v", i, err)))
			return exitIOError
		}
		frame := image.NewPaletted(image.Rect(0, 0, raster.Width, raster.Height), palette)
		draw.Draw(frame, frame.Bounds(), raster.Image(), image.Point{}, draw.Src)
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, delay)
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("creating %s: %v", path, err)))
		return exitIOError
	}
	defer f.Close()

	if err := gif.EncodeAll(f, g); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("encoding GIF: %v", err)))
		return exitIOError
	}
	return exitOK
}

// writeImageDir writes frame-%08d.png files, the pinned still-image
// naming convention this tool's decoder expects.
func writeImageDir(enc *transfer.Encoder, dir string, frameCount int) int {
	if frameCount == 0 {
		frameCount = enc.SinglePassPacketCount()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("creating %s: %v", dir, err)))
		return exitIOError
	}

	for i := 0; i < frameCount; i++ {
		raster, err := enc.NextRaster()
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("rendering frame %d: %v", i, err)))
			return exitIOError
		}
		name := filepath.Join(dir, fmt.Sprintf("frame-%08d.png", i))
		f, err := os.Create(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("creating %s: %v", name, err)))
			return exitIOError
		}
		err = png.Encode(f, raster.Image())
		f.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("encoding %s: %v", name, err)))
			return exitIOError
		}
	}
	return exitOK
}
