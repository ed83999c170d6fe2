package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/bfbridge"
	"github.com/wippyai/bfbridge/bridge"
	"github.com/wippyai/bfbridge/config"
	"github.com/wippyai/bfbridge/jvm"
	_ "github.com/wippyai/bfbridge/jvm/jni"
	"github.com/wippyai/bfbridge/jvm/wasmvm"
	"github.com/wippyai/bfbridge/reader"
	"github.com/wippyai/bfbridge/worker"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to a TOML config file (default: ./"+config.FileName+" if present)")
		backendName = flag.String("backend", "", "JVM backend ("+strings.Join(jvm.List(), ", ")+")")
		classPath   = flag.String("classpath", "", "Directory holding the bridging class and its jars")
		cacheDir    = flag.String("cachedir", "", "Directory the bridging class may cache opened files in")
		series      = flag.Int("series", 0, "Series to read")
		resolution  = flag.Int("resolution", 0, "Resolution level to read")
		tile        = flag.String("tile", "", "Region to write as PNG (x,y,w,h)")
		thumb       = flag.String("thumb", "", "Write a thumbnail fitting w,h as PNG")
		out         = flag.String("out", "", "PNG output path for -tile or -thumb")
		asJSON      = flag.Bool("json", false, "Print file information as JSON")
		omeXML      = flag.Bool("omexml", false, "Print the OME-XML metadata")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	file := flag.Arg(0)
	if file == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: bfinfo [-classpath dir] [-json] <image>")
		fmt.Fprintln(os.Stderr, "       bfinfo -tile x,y,w,h -out tile.png <image>")
		fmt.Fprintln(os.Stderr, "       bfinfo -thumb w,h -out thumb.png <image>")
		fmt.Fprintln(os.Stderr, "       bfinfo -i [image]  (interactive mode)")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFile, *backendName, *classPath, *cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(cfg, file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := runOptions{
		file:       file,
		series:     *series,
		resolution: *resolution,
		tile:       *tile,
		thumb:      *thumb,
		out:        *out,
		json:       *asJSON,
		omeXML:     *omeXML,
	}
	if err := run(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	file       string
	series     int
	resolution int
	tile       string
	thumb      string
	out        string
	json       bool
	omeXML     bool
}

// loadConfig layers flags over the config file and environment.
func loadConfig(path, backend, classPath, cacheDir string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.FileName); err == nil {
			path = config.FileName
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if classPath != "" {
		cfg.ClassPath = classPath
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true
	return zcfg.Build()
}

// session is everything opened for one run, released by close in reverse.
type session struct {
	vm  *bridge.VM
	buf *bfbridge.Buffer
	*worker.Session
}

func openSession(cfg *config.Config) (*session, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	bridge.SetLogger(logger)
	wasmvm.SetLogger(logger.Named("wasm"))

	backend, err := jvm.New(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	vm, err := bridge.NewVM(backend, cfg.VMOptions())
	if err != nil {
		return nil, fmt.Errorf("create VM: %w", err)
	}
	buf, err := bfbridge.NewBuffer(cfg.BufferSize)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("allocate buffer: %w", err)
	}
	ws, err := worker.NewSession(vm, buf)
	if err != nil {
		buf.Free()
		vm.Close()
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return &session{vm: vm, buf: buf, Session: ws}, nil
}

func (s *session) close() {
	s.Session.Close()
	s.buf.Free()
	s.vm.Close()
}

func run(cfg *config.Config, opts runOptions) error {
	s, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	return s.Read(context.Background(), func(r *reader.Reader) error {
		if err := r.Open(opts.file); err != nil {
			return err
		}
		defer r.Close()

		if opts.series != 0 {
			if err := r.SetSeries(opts.series); err != nil {
				return err
			}
		}
		if opts.resolution != 0 {
			if err := r.SetResolution(opts.resolution); err != nil {
				return err
			}
		}

		switch {
		case opts.tile != "":
			return writeTile(r, opts.tile, opts.out)
		case opts.thumb != "":
			return writeThumbnail(r, opts.thumb, opts.out)
		case opts.omeXML:
			xml, err := r.OMEXMLMetadata()
			if err != nil {
				return err
			}
			fmt.Println(xml)
			return nil
		}

		info, err := r.Info()
		if err != nil {
			return err
		}
		if opts.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		printInfo(info)
		return nil
	})
}

func printInfo(info *reader.Info) {
	fmt.Printf("File: %s\n", info.File)
	fmt.Printf("Format: %s\n", info.Format)
	fmt.Printf("Used files: %d\n", len(info.UsedFiles))
	for _, f := range info.UsedFiles {
		fmt.Printf("  %s\n", f)
	}
	fmt.Printf("Series: %d of %d\n", info.Series, info.SeriesCount)
	fmt.Printf("Resolution: %d of %d\n", info.Resolution, info.ResolutionCount)
	fmt.Printf("Size: %d x %d, C=%d Z=%d T=%d\n", info.SizeX, info.SizeY, info.SizeC, info.SizeZ, info.SizeT)
	fmt.Printf("Effective C: %d\n", info.EffectiveSizeC)
	fmt.Printf("Image count: %d\n", info.ImageCount)
	fmt.Printf("Dimension order: %s (certain: %t)\n", info.DimensionOrder, info.OrderCertain)
	fmt.Printf("Optimal tile: %d x %d\n", info.TileWidth, info.TileHeight)
	fmt.Printf("Pixel type: %s, %d bits, %d bytes\n", info.PixelType, info.BitsPerPixel, info.BytesPerPixel)
	fmt.Printf("RGB channels: %d (rgb: %t, interleaved: %t, little endian: %t)\n",
		info.RGBChannelCount, info.RGB, info.Interleaved, info.LittleEndian)
	fmt.Printf("Indexed color: %t, false color: %t\n", info.IndexedColor, info.FalseColor)
	fmt.Printf("MPP: x=%g y=%g z=%g\n", info.MPP[0], info.MPP[1], info.MPP[2])
}

// parseInts parses a comma-separated list of exactly n integers.
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated integers, got %q", n, s)
	}
	vals := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q in %q", p, s)
		}
		vals[i] = v
	}
	return vals, nil
}

func writeTile(r *reader.Reader, region, out string) error {
	v, err := parseInts(region, 4)
	if err != nil {
		return err
	}
	img, err := r.Tile(0, v[0], v[1], v[2], v[3])
	if err != nil {
		return err
	}
	return writePNG(img, out)
}

func writeThumbnail(r *reader.Reader, box, out string) error {
	v, err := parseInts(box, 2)
	if err != nil {
		return err
	}
	img, err := r.Thumbnail(0, v[0], v[1])
	if err != nil {
		return err
	}
	return writePNG(img, out)
}

func writePNG(img image.Image, out string) error {
	if out == "" {
		return fmt.Errorf("-out is required")
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %dx%d image to %s\n", img.Bounds().Dx(), img.Bounds().Dy(), out)
	return nil
}
