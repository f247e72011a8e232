// ripconv is a CLI utility for converting RIP geometry captures to OBJ and glTF.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/ripconv/internal/batch"
	"github.com/Faultbox/ripconv/internal/config"
	"github.com/Faultbox/ripconv/internal/logger"
	"github.com/Faultbox/ripconv/pkg/mesh"
	"github.com/Faultbox/ripconv/pkg/rip"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	if err := config.ParseFlags(os.Args[2:]); err != nil {
		os.Exit(2)
	}
	args := config.Args()

	switch command {
	case "convert", "c":
		os.Exit(cmdConvert(args))
	case "info", "i":
		os.Exit(cmdInfo(args))
	case "config":
		os.Exit(cmdConfig(args))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ripconv - RIP geometry capture converter

Usage:
  ripconv <command> [options] [args]

Commands:
  convert <file.rip|dir>...   Convert captures (directories are scanned for *.rip)
  info <file.rip>             Show header, vertex schema and mesh summary
  config init [path]          Write the effective config as YAML

Examples:
  ripconv convert -format obj,glb -output ./meshes captures/
  ripconv convert -format glb -textures png Mesh_0042.rip
  ripconv info Mesh_0042.rip
  ripconv config init ./ripconv.yaml

Options:`)
	config.PrintDefaults()
}

// setup loads config and initializes logging.
func setup() (*config.Config, bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, false
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, false
	}
	return cfg, true
}

func cmdConvert(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ripconv convert [options] <file.rip|dir>...")
		return 1
	}

	cfg, ok := setup()
	if !ok {
		return 1
	}
	defer logger.Sync()

	paths, err := collectInputs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "No .rip files found")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("converting",
		zap.Int("files", len(paths)),
		zap.Strings("formats", cfg.Export.Formats),
		zap.Int("workers", cfg.Batch.Workers))

	results, err := batch.Run(ctx, batch.Config{
		OutputDir:     cfg.Export.OutputDir,
		Formats:       cfg.Export.Formats,
		MaxTextures:   cfg.Export.MaxTextures,
		StrictFormats: cfg.Parse.StrictFormats,
		TextureFormat: cfg.Export.Textures,
		Mesh:          cfg.Assemble.MeshOptions(),
		Workers:       cfg.Batch.Workers,
		Logger:        logger.Named("batch"),
	}, paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var converted, skipped, failed int
	for _, r := range results {
		switch {
		case r.Failed():
			failed++
			fmt.Fprintf(os.Stderr, "FAILED  %s [%s]: %v\n", r.Path, r.Kind, r.Err)
		case r.Skipped:
			skipped++
			fmt.Printf("SKIPPED %s: no vertices or faces\n", r.Path)
		default:
			converted++
			fmt.Printf("OK      %s -> %s\n", r.Path, strings.Join(r.Outputs, ", "))
		}
	}

	fmt.Fprintf(os.Stderr, "\n%d converted, %d skipped, %d failed\n", converted, skipped, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// collectInputs expands directories into their *.rip files. A file named
// more than once is converted once.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(path string) {
		if clean := filepath.Clean(path); !seen[clean] {
			seen[clean] = true
			paths = append(paths, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".rip") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func cmdInfo(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ripconv info <file.rip>")
		return 1
	}

	cfg, ok := setup()
	if !ok {
		return 1
	}
	defer logger.Sync()

	log := logger.Named("info")
	doc, err := rip.ParseFile(args[0], rip.WithLogger(log), rip.WithStrictFormats(cfg.Parse.StrictFormats))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", rip.ErrorKind(err), err)
		return 1
	}

	opts := cfg.Assemble.MeshOptions()
	opts.Logger = log
	m := mesh.Assemble(doc, opts)

	printInfo(args[0], doc, m)
	return 0
}

func printInfo(path string, doc *rip.Document, m *mesh.Mesh) {
	h := doc.Header
	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Version:    %d\n", h.Version)
	fmt.Printf("Vertices:   %d (%d bytes each)\n", h.VertexCount, h.BlockSize)
	fmt.Printf("Faces:      %d retained of %d declared\n", len(doc.Faces), h.FaceCount)
	fmt.Printf("Shaders:    %d (skipped)\n", h.ShaderCount)
	fmt.Println()

	fmt.Println("Schema:")
	for i, a := range doc.Schema.Attributes {
		formats := make([]string, len(a.Formats))
		for j, f := range a.Formats {
			formats[j] = f.String()
			if !rip.Format(a.RawFormats[j]).Known() {
				formats[j] += fmt.Sprintf("(raw %d)", a.RawFormats[j])
			}
		}
		fmt.Printf("  [%d] %-12s idx=%d  bytes %3d..%-3d  %-9s %s\n",
			i, a.Semantic, a.SemanticIndex, a.Offset, a.End(),
			mesh.Classify(a.Semantic), strings.Join(formats, ","))
	}
	fmt.Println()

	if len(doc.Textures) > 0 {
		fmt.Println("Textures:")
		for _, t := range doc.Textures {
			fmt.Printf("  %s\n", t)
		}
		fmt.Println()
	}

	fmt.Printf("Mesh:       %d positions, %d normals, %d UV channels, %d triangles\n",
		len(m.Positions), len(m.Normals), len(m.UVs), len(m.Faces))
	if box, ok := m.Bounds(); ok {
		size, center := box.Size(), box.Center()
		fmt.Printf("Bounds:     min (%.3f, %.3f, %.3f) max (%.3f, %.3f, %.3f)\n",
			box.Min.X, box.Min.Y, box.Min.Z, box.Max.X, box.Max.Y, box.Max.Z)
		fmt.Printf("Center:     (%.3f, %.3f, %.3f)\n", center.X, center.Y, center.Z)
		fmt.Printf("Size:       %.3f x %.3f x %.3f (diagonal %.3f)\n",
			size.X, size.Y, size.Z, size.Length())
	}
}

func cmdConfig(args []string) int {
	if len(args) < 1 || args[0] != "init" {
		fmt.Fprintln(os.Stderr, "Usage: ripconv config init [path]")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var path string
	if len(args) > 1 {
		path = args[1]
		err = cfg.SaveTo(path)
	} else {
		path, err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		return 1
	}

	fmt.Printf("Wrote %s\n", path)
	return 0
}
