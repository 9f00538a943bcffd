// scenetool is a CLI utility for scene files: validation, inspection and
// pushing them to a running viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/Faultbox/scenegl/internal/geometry"
	"github.com/Faultbox/scenegl/internal/logger"
	"github.com/Faultbox/scenegl/internal/processor"
	"github.com/Faultbox/scenegl/internal/scene"
	"github.com/Faultbox/scenegl/internal/source"
	"github.com/Faultbox/scenegl/pkg/assertion"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "validate", "check":
		cmdValidate(args)
	case "info":
		cmdInfo(args)
	case "convert":
		cmdConvert(args)
	case "push":
		cmdPush(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - scenegl scene file utility

Usage:
  scenetool <command> [options]

Commands:
  validate <scene>...                 Decode scenes and apply them to an empty scene graph
  info <scene>                        Show assertion counts and resulting scene statistics
  convert <scene> <output>            Re-encode a scene (.yaml, .toml or .json)
  push [-url ws://...] <scene>...     Send scenes to a running viewer

Examples:
  scenetool validate scenes/demo.yaml
  scenetool info scenes/demo.yaml
  scenetool convert scenes/demo.yaml demo.toml
  scenetool push -url ws://localhost:7070/assertions scenes/demo.yaml`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// load decodes every file, keeping batch order.
func load(paths []string) []assertion.Batch {
	var batches []assertion.Batch
	for _, path := range paths {
		doc, err := source.LoadDocument(path)
		if err != nil {
			fail("%v", err)
		}
		b, err := doc.Decode()
		if err != nil {
			fail("%s: %v", path, err)
		}
		batches = append(batches, b...)
	}
	return batches
}

// noImages stands in for the texture loader; textures are recorded without
// pixels so validation needs neither files nor a GPU.
type noImages struct{}

func (noImages) Load(ctx context.Context, uri string) (*scene.Image, error) {
	return &scene.Image{}, nil
}

// simulate runs batches through a processor without a renderer.
func simulate(batches []assertion.Batch) (*scene.Store, int, error) {
	log := logger.Named("scenetool")
	store := scene.NewStore()
	manager := geometry.NewManager(log, store, geometry.Resources{}, 16)
	proc := processor.New(log, store, manager, noImages{}, nil, nil)

	commands := 0
	for i, b := range batches {
		cmds, err := proc.Process(context.Background(), b)
		if err != nil {
			return store, commands, fmt.Errorf("batch %d: %w", i, err)
		}
		commands += len(cmds)
	}
	return store, commands, nil
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool validate <scene>...")
		os.Exit(1)
	}

	batches := load(args)
	store, _, err := simulate(batches)
	if err != nil {
		fail("%v", err)
	}
	if pending := store.Pending(); len(pending) > 0 {
		fmt.Printf("warning: %d triangle(s) reference missing vertices: %v\n", len(pending), pending)
	}
	fmt.Printf("OK: %d file(s), %d batch(es)\n", len(args), len(batches))
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool info <scene>")
		os.Exit(1)
	}

	doc, err := source.LoadDocument(args[0])
	if err != nil {
		fail("%v", err)
	}
	batches, err := doc.Decode()
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("Scene:   %s\n", args[0])
	fmt.Printf("Batches: %d\n", len(doc.Batches))
	fmt.Println()
	fmt.Println("Assertions by kind:")

	type kindStat struct {
		kind  string
		count int
	}
	var stats []kindStat
	for kind, count := range doc.Count() {
		stats = append(stats, kindStat{kind, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].kind < stats[j].kind
	})
	for _, s := range stats {
		fmt.Printf("  %-20s %d\n", s.kind, s.count)
	}

	store, commands, err := simulate(batches)
	if err != nil {
		fail("%v", err)
	}
	st := store.Stats()
	fmt.Println()
	fmt.Println("Scene graph:")
	fmt.Printf("  vertices   %d\n", st.Vertices)
	fmt.Printf("  triangles  %d (%d pending)\n", st.Triangles, st.Pending)
	fmt.Printf("  textures   %d\n", st.Textures)
	fmt.Printf("  tex coords %d\n", st.TexCoords)
	fmt.Printf("  colors     %d\n", st.Colors)
	fmt.Printf("  commands   %d\n", commands)
}

func cmdConvert(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool convert <scene> <output>")
		os.Exit(1)
	}

	doc, err := source.LoadDocument(args[0])
	if err != nil {
		fail("%v", err)
	}
	format, err := source.FormatOf(args[1])
	if err != nil {
		fail("%v", err)
	}
	data, err := doc.Marshal(format)
	if err != nil {
		fail("%v", err)
	}
	if err := os.MkdirAll(filepath.Dir(args[1]), 0755); err != nil {
		fail("%v", err)
	}
	if err := os.WriteFile(args[1], data, 0644); err != nil {
		fail("%v", err)
	}
	fmt.Printf("Wrote %s (%s)\n", args[1], format)
}

func cmdPush(args []string) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	url := fs.String("url", "ws://localhost:7070/assertions", "Viewer websocket endpoint")
	timeout := fs.Duration("timeout", 30*time.Second, "Give up after this long")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool push [-url ws://...] <scene>...")
		os.Exit(1)
	}

	batches := load(fs.Args())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	accepted, err := source.Push(ctx, *url, batches)
	if err != nil {
		fail("%v (accepted %d assertions before failing)", err, accepted)
	}
	fmt.Printf("Pushed %d batch(es), %d assertion(s) to %s\n", len(batches), accepted, *url)
}
