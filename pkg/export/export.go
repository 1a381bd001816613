// Package export renders committed diagrams to image and data formats.
//
// Export always reads the diagram it is given (the in-memory committed
// model), never storage. Supported formats:
//
//   - png: raster image drawn with [github.com/fogleman/gg]
//   - svg: vector image rendered by Graphviz neato with pinned positions
//   - dot: the Graphviz source used for svg
//   - json: the scene graph (see [canvas.Scene])
//
// A diagram with no nodes exports as a well-formed blank canvas. Failures
// are EXPORT coded errors and never produce partial output; [WriteFile]
// writes to a temporary file and renames it into place.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trazo/pkg/cache"
	"github.com/matzehuels/trazo/pkg/canvas"
	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	dio "github.com/matzehuels/trazo/pkg/io"
	"github.com/matzehuels/trazo/pkg/observability"
)

// Format is an export format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatPNG, FormatSVG, FormatDOT, FormatJSON}

// ParseFormat parses a format name or file extension (".png").
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported export format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

const (
	// DefaultBlankWidth and DefaultBlankHeight size the blank canvas of an
	// empty diagram.
	DefaultBlankWidth  = 800
	DefaultBlankHeight = 600

	// DefaultBackground is the canvas color.
	DefaultBackground = "#FFFFFF"

	// MaxScale bounds the raster scale factor.
	MaxScale = 4.0

	// MaxPixels bounds the raster size.
	MaxPixels = 64 << 20
)

// Options configures an export.
type Options struct {
	Format Format `json:"format"`
	// Scale multiplies raster dimensions; 2 gives a high-DPI image.
	Scale float64 `json:"scale,omitempty"`
	// BlankWidth and BlankHeight size the canvas of an empty diagram.
	BlankWidth  int    `json:"blank_width,omitempty"`
	BlankHeight int    `json:"blank_height,omitempty"`
	Background  string `json:"background,omitempty"`
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Format == "" {
		o.Format = FormatPNG
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.BlankWidth <= 0 {
		o.BlankWidth = DefaultBlankWidth
	}
	if o.BlankHeight <= 0 {
		o.BlankHeight = DefaultBlankHeight
	}
	if !diagram.ValidColor(o.Background) {
		o.Background = DefaultBackground
	}
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if o.Scale > MaxScale {
		return errs.New(errs.ErrCodeInvalidInput, "scale %.1f exceeds maximum %.1f", o.Scale, MaxScale)
	}
	return nil
}

// Export renders d without caching.
func Export(ctx context.Context, d *diagram.Diagram, opts Options) ([]byte, error) {
	return NewExporter(nil, nil, nil).Export(ctx, d, opts)
}

// Exporter renders diagrams, caching artifacts by diagram content.
type Exporter struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewExporter creates an exporter. A nil cache disables caching.
func NewExporter(c cache.Cache, k cache.Keyer, logger *log.Logger) *Exporter {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{Cache: c, Keyer: k, Logger: logger}
}

// Export renders d in the requested format.
func (e *Exporter) Export(ctx context.Context, d *diagram.Diagram, opts Options) (data []byte, err error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if d == nil {
		d = diagram.New("", diagram.VariantFlow)
	}

	start := time.Now()
	defer func() {
		observability.Export().OnExport(ctx, string(opts.Format), len(data), time.Since(start), err)
	}()

	// Blank canvases are cheap and not cached.
	key := ""
	if d.NodeCount() > 0 {
		if raw, err := dio.Marshal(d); err == nil {
			key = e.Keyer.ArtifactKey(cache.Hash(raw), cache.ArtifactKeyOpts{Format: string(opts.Format), Scale: opts.Scale})
		}
	}
	if key != "" {
		if data, hit, err := e.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	data, err = e.render(ctx, canvas.BuildScene(d), opts)
	if err != nil {
		e.Logger.Error("export failed", "format", opts.Format, "err", err)
		return nil, err
	}
	if key != "" {
		if err := e.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	e.Logger.Debug("exported diagram", "format", opts.Format, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

func (e *Exporter) render(ctx context.Context, s canvas.Scene, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeExport, err, "export cancelled")
	}
	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatPNG:
		data, err = RenderPNG(s, opts)
	case FormatSVG:
		data, err = RenderSVG(ctx, s, opts)
	case FormatDOT:
		data = []byte(ToDOT(s, opts))
	case FormatJSON:
		data, err = RenderJSON(s)
	}
	if err != nil {
		if errs.GetCode(err) != "" {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeExport, err, "render %s", opts.Format)
	}
	return data, nil
}

// WriteFile exports d to path. The format defaults to the path's extension.
// Nothing is left at path when the export fails.
func (e *Exporter) WriteFile(ctx context.Context, d *diagram.Diagram, opts Options, path string) error {
	if opts.Format == "" {
		f, err := ParseFormat(filepath.Ext(path))
		if err != nil {
			return err
		}
		opts.Format = f
	}
	data, err := e.Export(ctx, d, opts)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".trazo-export-*")
	if err != nil {
		return errs.Wrap(errs.ErrCodeExport, err, "create %s", path)
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errs.Wrap(errs.ErrCodeExport, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errs.Wrap(errs.ErrCodeExport, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errs.Wrap(errs.ErrCodeExport, err, "write %s", path)
	}
	return nil
}

// frame returns the drawing area of a scene: its bounds, or the blank
// canvas for an empty scene.
func frame(s canvas.Scene, opts Options) diagram.Rect {
	if s.Empty() {
		return diagram.Rect{W: float64(opts.BlankWidth), H: float64(opts.BlankHeight)}
	}
	return s.Bounds
}

func checkSize(w, h float64) error {
	if w <= 0 || h <= 0 || w*h > MaxPixels {
		return fmt.Errorf("image size %.0fx%.0f out of range", w, h)
	}
	return nil
}
