package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/maktaba/internal/epub"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
	validParsers    = []string{"goquery", "node"}
	validDecoders   = []string{"xml", "etree"}
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "maktaba",
		Short: "Read and serve a library of EPUB books",
		Long: `maktaba reads EPUB books one chapter per page, with Arabic word lookup.

It can validate and render books from the command line, serve a library
over HTTP, or open a book in the terminal.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	pf.String("log-format", defaultLogFormat, "Log format: text, json")
	pf.BoolP("verbose", "v", false, "Enable debug logging (same as --log-level debug)")

	root.AddCommand(
		newValidateCmd(),
		newRenderCmd(),
		newInspectCmd(),
		newServeCmd(),
		newReadCmd(),
	)
	return root
}

// bookOptions are the options shared by commands that open one EPUB file.
type bookOptions struct {
	Path    string
	Parser  epub.ContentParser
	Decoder epub.PackageDecoder
	RTL     bool
	Logger  *slog.Logger
}

func addBookFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("parser", "goquery", "Content parser: goquery, node")
	f.String("decoder", "xml", "Package decoder: xml, etree")
	f.Bool("arabic", false, "Arabic display mode: right-to-left with word lookup spans")
}

func readBookOptions(cmd *cobra.Command, args []string) (bookOptions, error) {
	logger, err := readLogger(cmd)
	if err != nil {
		return bookOptions{}, err
	}
	if len(args) != 1 {
		return bookOptions{}, fmt.Errorf("expected one EPUB file, got %d arguments", len(args))
	}

	f := cmd.Flags()
	parserName, _ := f.GetString("parser")
	decoderName, _ := f.GetString("decoder")
	rtl, _ := f.GetBool("arabic")

	parser, err := parseParser(parserName)
	if err != nil {
		return bookOptions{}, err
	}
	decoder, err := parseDecoder(decoderName)
	if err != nil {
		return bookOptions{}, err
	}

	return bookOptions{
		Path:    args[0],
		Parser:  parser,
		Decoder: decoder,
		RTL:     rtl,
		Logger:  logger,
	}, nil
}

func parseParser(name string) (epub.ContentParser, error) {
	switch strings.ToLower(name) {
	case "goquery":
		return epub.GoqueryParser{}, nil
	case "node":
		return epub.NodeParser{}, nil
	}
	return nil, fmt.Errorf("invalid --parser %q: must be one of %s", name, strings.Join(validParsers, ", "))
}

func parseDecoder(name string) (epub.PackageDecoder, error) {
	switch strings.ToLower(name) {
	case "xml":
		return epub.XMLDecoder{}, nil
	case "etree":
		return epub.EtreeDecoder{}, nil
	}
	return nil, fmt.Errorf("invalid --decoder %q: must be one of %s", name, strings.Join(validDecoders, ", "))
}

// readLogger builds the logger selected by the persistent logging flags.
// Logs go to stderr so command output stays clean.
func readLogger(cmd *cobra.Command) (*slog.Logger, error) {
	f := cmd.Flags()
	level, _ := f.GetString("log-level")
	format, _ := f.GetString("log-format")
	verbose, _ := f.GetBool("verbose")

	if !contains(validLogLevels, strings.ToLower(level)) {
		return nil, fmt.Errorf("invalid --log-level %q: must be one of %s", level, strings.Join(validLogLevels, ", "))
	}
	if !contains(validLogFormats, strings.ToLower(format)) {
		return nil, fmt.Errorf("invalid --log-format %q: must be one of %s", format, strings.Join(validLogFormats, ", "))
	}
	if verbose {
		level = "debug"
	}
	return buildLogger(cmd.ErrOrStderr(), level, format), nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// defaultOutputDir is the input path without its extension.
func defaultOutputDir(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
