// scenetool is a CLI utility for inspecting glTF bundles and viewer configs.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/hotspot-viewer/internal/assets"
	"github.com/Faultbox/hotspot-viewer/internal/config"
	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/internal/viewer"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "clips":
		cmdClips(args)
	case "check":
		cmdCheck(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - hotspot viewer scene utility

Usage:
  scenetool <command> [options]

Commands:
  info <bundle.gltf>     Show node tree and bundle statistics
  clips <bundle.gltf>    List animation clips and their tracks
  check [config.yaml]    Validate config, hotspot panels and asset files

Examples:
  scenetool info models/BlenderScene.gltf
  scenetool clips models/BlenderScene.gltf
  scenetool check config.yaml`)
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

func openBundle(file string) *assets.Bundle {
	data, err := os.ReadFile(file)
	if err != nil {
		fail("%v", err)
	}
	dir, name := filepath.Split(file)
	if dir == "" {
		dir = "."
	}
	b, err := assets.DecodeBundle(os.DirFS(dir), name, data)
	if err != nil {
		fail("%v", err)
	}
	return b
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool info <bundle.gltf>")
		os.Exit(1)
	}
	b := openBundle(args[0])
	s := b.Stats()

	fmt.Printf("Bundle: %s\n", args[0])
	fmt.Printf("Nodes: %d  Meshes: %d  Primitives: %d  Triangles: %d\n", s.Nodes, s.Meshes, s.Primitives, s.Triangles)
	fmt.Printf("Skins: %d  Clips: %d  Textures: %d\n", s.Skins, s.Clips, s.Textures)
	fmt.Println("\nTree:")
	printNode(b.Root, 0)
}

func printNode(n *scenegraph.Node, depth int) {
	extra := ""
	if n.Mesh != nil {
		extra = fmt.Sprintf(" [mesh %d prims]", len(n.Mesh.Primitives))
	}
	if n.Skin != nil {
		extra += fmt.Sprintf(" [skin %d joints]", len(n.Skin.Joints))
	}
	s := n.Scale
	fmt.Printf("%s%s%s scale=(%.3g, %.3g, %.3g)\n", strings.Repeat("  ", depth), n.Name, extra, s.X, s.Y, s.Z)
	for _, c := range n.Children() {
		printNode(c, depth+1)
	}
}

func cmdClips(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool clips <bundle.gltf>")
		os.Exit(1)
	}
	b := openBundle(args[0])
	if len(b.Clips) == 0 {
		fmt.Println("No clips.")
		return
	}
	for _, c := range b.Clips {
		paths := make(map[string]int)
		for _, tr := range c.Tracks {
			paths[tr.Path.String()]++
		}
		keys := make([]string, 0, len(paths))
		for k := range paths {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%d", k, paths[k])
		}
		fmt.Printf("%-40s %7.2fs  %3d tracks  %s\n", c.Name, c.Duration, len(c.Tracks), strings.Join(parts, " "))
	}
}

func cmdCheck(args []string) {
	cfg := config.Default()
	if len(args) > 0 {
		var err error
		if cfg, err = config.LoadFile(args[0]); err != nil {
			fail("%v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		fail("%v", err)
	}
	if _, err := viewer.NewSceneContext(cfg); err != nil {
		fail("%v", err)
	}
	fmt.Printf("Hotspots: %d, each with an overlay panel\n", len(cfg.Hotspots))

	manager := assets.NewManager()
	defer manager.Close()
	if err := manager.AddDir(cfg.Assets.Root); err != nil {
		fail("%v", err)
	}
	missing := 0
	for _, name := range []string{cfg.Assets.Background, cfg.Assets.Model, cfg.Assets.MarkerIcon} {
		if _, err := manager.Load(name); err != nil {
			fmt.Printf("  MISSING %s: %v\n", name, err)
			missing++
			continue
		}
		fmt.Printf("  ok      %s\n", name)
	}
	if missing > 0 {
		// Tolerated at runtime.
		fmt.Printf("%d asset(s) missing; the viewer will run without them\n", missing)
	}
}
