// Package batch converts many RIP files in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/ripconv/pkg/export"
	"github.com/Faultbox/ripconv/pkg/mesh"
	"github.com/Faultbox/ripconv/pkg/rip"
	"github.com/Faultbox/ripconv/pkg/textures"
)

// ProgressInterval is how often Run logs progress.
var ProgressInterval = 2 * time.Second

// ErrOutputCollision is reported for an input whose output files would
// overwrite those of an earlier input in the same run.
var ErrOutputCollision = errors.New("output path already claimed by another input")

// Config holds the settings shared by every file of a run.
type Config struct {
	OutputDir     string // Empty writes next to each input
	Formats       []string
	MaxTextures   int
	StrictFormats bool
	TextureFormat string // png or webp re-encodes textures; empty keeps captured names
	Mesh          mesh.Options
	Workers       int
	Logger        *zap.Logger
}

// Result holds the outcome of converting one file.
type Result struct {
	Path     string
	Outputs  []string // Files written, empty on failure or skip
	Vertices int
	Faces    int
	Textures []string // Names the exported materials reference
	Skipped  bool     // Parsed fine but had no geometry to export
	Kind     string   // Error taxonomy name, set on failure
	Err      error
	Duration time.Duration
}

// Failed reports whether the file could not be converted.
func (r Result) Failed() bool {
	return r.Err != nil
}

type converter struct {
	cfg       Config
	log       *zap.Logger
	exporters []export.Exporter

	// Converted textures keyed by source and destination, shared by all
	// files of a run so a texture referenced twice is encoded once.
	mu       sync.Mutex
	textures map[string]*textureJob
}

type textureJob struct {
	once sync.Once
	path string
	err  error
}

// Run converts every path with a bounded worker pool. Failures are isolated
// per file and reported in the results, which keep the order of paths.
// Inputs that would write the same output files as an earlier input fail
// with ErrOutputCollision.
// The returned error is non-nil only for an unusable Config.
func Run(ctx context.Context, cfg Config, paths []string) ([]Result, error) {
	c, err := newConverter(cfg)
	if err != nil {
		return nil, err
	}

	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					c.log.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("files_per_sec", rate))
				}
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	claimed := c.claimOutputs(paths, results)
	for i, path := range paths {
		if !claimed[i] {
			processed.Add(1)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err, Kind: "Canceled"}
			} else {
				results[i] = c.convert(path)
			}
			processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	close(done)

	return results, nil
}

// claimOutputs assigns each output base to the first input that maps to it.
// Later inputs get an OutputCollision result and are not converted.
func (c *converter) claimOutputs(paths []string, results []Result) []bool {
	owners := make(map[string]string, len(paths))
	claimed := make([]bool, len(paths))
	for i, path := range paths {
		base := filepath.Clean(c.outputBase(path))
		if owner, ok := owners[base]; ok {
			results[i] = Result{
				Path: path,
				Err:  fmt.Errorf("%w: %s writes %s", ErrOutputCollision, owner, base),
				Kind: "OutputCollision",
			}
			c.log.Error("conversion failed",
				zap.String("file", path),
				zap.String("kind", results[i].Kind),
				zap.Error(results[i].Err))
			continue
		}
		owners[base] = path
		claimed[i] = true
	}
	return claimed
}

// ConvertFile converts a single file.
func ConvertFile(cfg Config, path string) (Result, error) {
	c, err := newConverter(cfg)
	if err != nil {
		return Result{}, err
	}
	return c.convert(path), nil
}

func newConverter(cfg Config) (*converter, error) {
	c := &converter{cfg: cfg, log: cfg.Logger, textures: make(map[string]*textureJob)}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if cfg.TextureFormat != "" && !textures.ValidTarget(cfg.TextureFormat) {
		return nil, fmt.Errorf("batch: %w: %q", textures.ErrUnknownTarget, cfg.TextureFormat)
	}
	for _, name := range cfg.Formats {
		e, err := export.ForFormat(name)
		if err != nil {
			return nil, err
		}
		c.exporters = append(c.exporters, e)
	}
	if len(c.exporters) == 0 {
		return nil, errors.New("batch: no export formats configured")
	}
	return c, nil
}

func (c *converter) workers() int {
	if c.cfg.Workers > 0 {
		return c.cfg.Workers
	}
	return runtime.NumCPU()
}

// outputBase returns the output path without extension for an input file.
func (c *converter) outputBase(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if c.cfg.OutputDir != "" {
		base = filepath.Join(c.cfg.OutputDir, filepath.Base(base))
	}
	return base
}

func (c *converter) convert(path string) (res Result) {
	start := time.Now()
	log := c.log.With(zap.String("file", path))
	res = Result{Path: path}
	defer func() {
		res.Duration = time.Since(start)
	}()

	fail := func(err error) Result {
		res.Err = err
		res.Kind = rip.ErrorKind(err)
		log.Error("conversion failed", zap.String("kind", res.Kind), zap.Error(err))
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	doc, err := rip.Parse(data, rip.WithLogger(log), rip.WithStrictFormats(c.cfg.StrictFormats))
	if err != nil {
		return fail(err)
	}

	opts := c.cfg.Mesh
	opts.Logger = log
	m := mesh.Assemble(doc, opts)

	res.Vertices = m.VertexCount()
	res.Faces = len(m.Faces)
	res.Textures = export.TextureNames(doc.Textures)
	if len(res.Textures) == 0 {
		res.Textures = textures.Discover(data, c.cfg.MaxTextures)
	}

	if m.Empty() {
		res.Skipped = true
		log.Info("skipping file without geometry",
			zap.Int("vertices", res.Vertices),
			zap.Int("faces", res.Faces))
		return res
	}

	if c.cfg.OutputDir != "" {
		if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
			return fail(err)
		}
	}

	base := c.outputBase(path)
	if c.cfg.TextureFormat != "" {
		res.Textures = c.convertTextures(log, filepath.Dir(path), filepath.Dir(base), res.Textures)
	}

	var outputs []string
	for _, e := range c.exporters {
		files, err := e.Export(m, res.Textures, base)
		outputs = append(outputs, files...)
		if err != nil {
			for _, f := range outputs {
				os.Remove(f)
			}
			return fail(err)
		}
	}

	res.Outputs = outputs
	log.Debug("converted",
		zap.Int("vertices", res.Vertices),
		zap.Int("faces", res.Faces),
		zap.Strings("outputs", outputs))
	return res
}

// convertTextures re-encodes each texture found next to the input into
// outDir and returns the names to reference. Textures that cannot be
// converted keep their captured name.
func (c *converter) convertTextures(log *zap.Logger, inDir, outDir string, names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name
		src := name
		if !filepath.IsAbs(src) {
			src = filepath.Join(inDir, filepath.FromSlash(src))
		}
		dst, err := c.convertTexture(src, outDir)
		if err != nil {
			log.Warn("texture not converted", zap.String("texture", name), zap.Error(err))
			continue
		}
		out[i] = filepath.Base(dst)
	}
	return out
}

func (c *converter) convertTexture(src, outDir string) (string, error) {
	key := src + "\x00" + outDir
	c.mu.Lock()
	job, ok := c.textures[key]
	if !ok {
		job = new(textureJob)
		c.textures[key] = job
	}
	c.mu.Unlock()

	job.once.Do(func() {
		job.path, job.err = textures.Convert(src, outDir, c.cfg.TextureFormat)
	})
	return job.path, job.err
}
