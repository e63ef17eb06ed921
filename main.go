package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "conmap [file]",
		Short:         "conmap: concept maps and mind maps in the terminal",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := ""
			if len(args) == 1 {
				filename = args[0]
			}
			return runEditor(loadConfig(), filename)
		},
	}
	root.SetVersionTemplate("conmap {{ .Version }}\n")
	root.AddCommand(exportCmd(), checkCmd(), pathCmd())
	return withErrorOutput(root)
}

// withErrorOutput prints a command's error in red before cobra exits.
func withErrorOutput(cmd *cobra.Command) *cobra.Command {
	for _, sub := range append([]*cobra.Command{cmd}, allSubcommands(cmd)...) {
		run := sub.RunE
		if run == nil {
			continue
		}
		sub.RunE = func(c *cobra.Command, args []string) error {
			err := run(c, args)
			if err != nil {
				Bad.Fprintf(os.Stderr, "conmap: %v\n", err)
			}
			return err
		}
	}
	return cmd
}

func allSubcommands(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, sub := range cmd.Commands() {
		out = append(out, sub)
		out = append(out, allSubcommands(sub)...)
	}
	return out
}

func runEditor(config *Config, filename string) error {
	closeLog, err := setupLogging(config)
	if err != nil {
		return err
	}
	defer closeLog()

	var diagram *Diagram
	if filename != "" {
		if _, statErr := os.Stat(filename); statErr == nil {
			d, report, err := LoadFile(filename)
			if err != nil {
				return err
			}
			log.Printf("opened %s (%d points dropped)", filename, report.DroppedPoints)
			diagram = d
		} else {
			title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
			diagram = NewDiagram(title, DiagramConcept)
		}
	}

	p := tea.NewProgram(
		newModel(config, diagram, filename),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running editor: %w", err)
	}
	return nil
}

// setupLogging sends the standard logger to the configured file, or
// discards it so nothing is written over the alt screen.
func setupLogging(config *Config) (func(), error) {
	path := config.LogFile
	if path == "" && os.Getenv("CONMAP_DEBUG") != "" {
		path = "conmap-debug.log"
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "conmap")
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return func() { f.Close() }, nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a diagram to an image or text file",
	}

	var pngOut string
	var scale float64
	pngCmd := &cobra.Command{
		Use:   "png <file>",
		Short: "Export a diagram as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			d, _, err := LoadFile(args[0])
			if err != nil {
				return err
			}
			out := outputPath(pngOut, args[0], ".png")
			if !cmd.Flags().Changed("scale") {
				scale = config.Export.Scale
			}
			if err := d.ExportToPNG(out, scale, config.Export.Padding); err != nil {
				return err
			}
			Good.Printf("wrote %s\n", out)
			return nil
		},
	}
	pngCmd.Flags().StringVarP(&pngOut, "output", "o", "", "output file (default: input name with .png)")
	pngCmd.Flags().Float64Var(&scale, "scale", exportScale, "pixels per diagram unit")

	var txtOut string
	var width, height int
	txtCmd := &cobra.Command{
		Use:   "txt <file>",
		Short: "Export a diagram as plain text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := LoadFile(args[0])
			if err != nil {
				return err
			}
			out := outputPath(txtOut, args[0], ".txt")
			if width > 0 && height > 0 {
				lo, _, ok := d.Bounds()
				if !ok {
					return fmt.Errorf("nothing to export")
				}
				vp := Viewport{OffsetX: lo.X - cellWidth, OffsetY: lo.Y - cellHeight, Zoom: 1, Cols: width, Rows: height}
				err = d.exportVisualTXT(out, vp)
			} else {
				err = d.ExportVisualTXT(out)
			}
			if err != nil {
				return err
			}
			Good.Printf("wrote %s\n", out)
			return nil
		},
	}
	txtCmd.Flags().StringVarP(&txtOut, "output", "o", "", "output file (default: input name with .txt)")
	txtCmd.Flags().IntVar(&width, "width", 0, "columns (default: fit the diagram)")
	txtCmd.Flags().IntVar(&height, "height", 0, "rows (default: fit the diagram)")

	cmd.AddCommand(pngCmd, txtCmd)
	return cmd
}

func outputPath(out, input, ext string) string {
	if out != "" {
		return out
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Load a diagram and report what sanitizing dropped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, report, err := LoadFile(args[0])
			if err != nil {
				return err
			}
			waypoints := 0
			for _, e := range d.edges {
				waypoints += len(e.Points)
			}
			fmt.Printf("%s %s\n", Brand.Sprint(d.Title), Subtle.Sprintf("(%s)", d.Type))
			Table([][2]string{
				{"nodes", fmt.Sprint(len(d.nodes))},
				{"edges", fmt.Sprint(len(d.edges))},
				{"waypoints", fmt.Sprint(waypoints)},
			})
			if report.DroppedPoints+report.DroppedNodes+report.DroppedEdges == 0 {
				Good.Println("clean")
				return nil
			}
			Warn.Printf("dropped %d invalid points, %d nodes, %d edges\n",
				report.DroppedPoints, report.DroppedNodes, report.DroppedEdges)
			return nil
		},
	}
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <file> <edge-id>",
		Short: "Print the path data of an edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := LoadFile(args[0])
			if err != nil {
				return err
			}
			edge, ok := d.Edge(args[1])
			if !ok {
				return fmt.Errorf("no edge %q in %s", args[1], args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), BuildPath(d.FullPath(edge)))
			return nil
		},
	}
}
