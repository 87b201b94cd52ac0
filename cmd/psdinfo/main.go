package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/decoder"
)

func main() {
	var (
		file          = flag.String("file", "", "Path to PSD file")
		showLayers    = flag.Bool("layers", false, "List layer records")
		showResources = flag.Bool("resources", false, "List image resources")
		verbose       = flag.Bool("v", false, "Verbose decoder logging")
		interactive   = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: psdinfo -file <file.psd> [-layers] [-resources]")
		fmt.Fprintln(os.Stderr, "       psdinfo -file <file.psd> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		decoder.SetLogger(logger)
	}

	if *interactive {
		if err := runInteractive(*file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*file, *showLayers, *showResources); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, showLayers, showResources bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	meta, err := decoder.ParseMetadata(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Dimensions: %dx%d\n", meta.Width, meta.Height)
	fmt.Printf("Channels: %d\n", meta.ChannelCount)
	fmt.Printf("Depth: %d bits\n", meta.Depth)
	fmt.Printf("Color mode: %s\n", rawpsd.ColorModeName(meta.ColorMode))
	if len(meta.ColorModeData) > 0 {
		fmt.Printf("Color mode payload: %d bytes\n", len(meta.ColorModeData))
	}
	fmt.Printf("Resources: %d\n", len(meta.Resources))

	if showResources {
		fmt.Printf("\nImage resources:\n")
		for _, res := range meta.Resources {
			name := res.Name
			if name == "" {
				name = "-"
			}
			fmt.Printf("  %4d  %-20s %6d bytes", res.ID, name, len(res.Data))
			if len(res.AlphaNames) > 0 {
				fmt.Printf("  [%s]", strings.Join(res.AlphaNames, ", "))
			}
			fmt.Println()
		}
	}

	if showLayers {
		layers, err := decoder.ParseLayerRecords(data)
		if err != nil {
			return fmt.Errorf("decode layers: %w", err)
		}
		fmt.Printf("\nLayers (%d, bottom to top):\n", len(layers))
		for i, l := range layers {
			fmt.Printf("  [%d] %s\n", i, formatLayer(l))
		}
	}
	return nil
}

func formatLayer(l rawpsd.LayerRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q %dx%d at (%d,%d) blend=%s opacity=%d",
		l.Name, l.Rect.Width(), l.Rect.Height(), l.Rect.Left, l.Rect.Top,
		strings.TrimSpace(l.BlendModeKey), l.Opacity)
	if l.IsDivider {
		fmt.Fprintf(&b, " divider=%d", l.DividerType)
	}
	if l.Mask != nil {
		fmt.Fprintf(&b, " mask=%dx%d", l.Mask.Rect.Width(), l.Mask.Rect.Height())
	}
	if len(l.ExtraBlocks) > 0 {
		keys := make([]string, 0, len(l.ExtraBlocks))
		for k := range l.ExtraBlocks {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, " extras=[%s]", strings.Join(keys, " "))
	}
	return b.String()
}
