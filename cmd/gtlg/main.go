// Command gtlg converts between TLG images and common bitmap formats.
//
// Usage:
//
//	gtlg enc [options] <input>       PNG/JPEG/GIF/BMP/TIFF → TLG5 (use "-" for stdin)
//	gtlg dec [options] <input.tlg>   TLG5/TLG6 → PNG/JPEG/GIF/BMP/TIFF (use "-" for stdin, -o - for stdout)
//	gtlg info <input.tlg>            Display TLG header and tags
//
// Tags travel in a sidecar text file of key=value lines next to the
// image, named by swapping the extension for .tags. enc reads the input's
// sidecar when present (or the file given with -tags); dec writes one
// beside its output when the image carries any tags.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/deepteams/tlg"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "enc":
		err = runEnc(os.Args[2:])
	case "dec":
		err = runDec(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "gtlg: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "gtlg: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gtlg enc [options] <input>       Encode PNG/JPEG/GIF/BMP/TIFF to TLG5
  gtlg dec [options] <input.tlg>   Decode TLG5/TLG6 to PNG, JPEG, GIF, BMP or TIFF
  gtlg info <input.tlg>            Display TLG header and tags

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "gtlg <command> -h" for command-specific options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func setVerbose(v bool) {
	if v {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
}

// outputName derives a default output path from the input path.
func outputName(inputPath, ext string) string {
	if inputPath == "-" {
		return "output" + ext
	}
	return strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + ext
}

// writeFile creates path and fills it with write. A failed write removes
// the partial file.
func writeFile(path string, write func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// --- tags sidecar ---

// sidecarPath returns path with its extension replaced by ".tags".
func sidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".tags"
}

// readTags parses key=value lines. Blank lines and lines starting with
// '#' are ignored; the first '=' separates key from value and surrounding
// whitespace is trimmed from both.
func readTags(r io.Reader) (map[string]string, error) {
	tags := map[string]string{}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '='", n)
		}
		tags[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return tags, sc.Err()
}

// writeTags writes tags as sorted key=value lines.
func writeTags(w io.Writer, tags map[string]string) error {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	bw := bufio.NewWriter(w)
	for _, k := range keys {
		fmt.Fprintf(bw, "%s=%s\n", k, tags[k])
	}
	return bw.Flush()
}

// --- enc ---

func runEnc(args []string) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: <input>.tlg, "-" for stdout)`)
	tagsPath := fs.String("tags", "", "key=value tags file to embed (default: <input>.tags if it exists)")
	gray := fs.Bool("gray", false, "store as 8-bit grayscale")
	alpha := fs.Bool("alpha", false, "always store an alpha channel")
	verbose := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("enc: missing input file\nUsage: gtlg enc [options] <input>")
	}
	if *gray && *alpha {
		return fmt.Errorf("enc: -gray and -alpha are mutually exclusive")
	}
	setVerbose(*verbose)
	inputPath := fs.Arg(0)

	opts := &tlg.EncoderOptions{}
	switch {
	case *gray:
		opts.Color = tlg.Grayscale8
	case *alpha:
		opts.Color = tlg.BGRA32
	}
	tagsFile, explicit := *tagsPath, *tagsPath != ""
	if !explicit && inputPath != "-" {
		tagsFile = sidecarPath(inputPath)
	}
	if tagsFile != "" {
		f, err := os.Open(tagsFile)
		switch {
		case err == nil:
			opts.Tags, err = readTags(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("enc: reading tags %s: %w", tagsFile, err)
			}
			slog.Debug("gtlg: tags loaded", "path", tagsFile, "count", len(opts.Tags))
		case explicit || !os.IsNotExist(err):
			return err
		}
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	img, format, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("enc: decoding input: %w", err)
	}
	slog.Debug("gtlg: input decoded", "format", format, "bounds", img.Bounds())

	if *output == "-" {
		return tlg.Encode(os.Stdout, img, opts)
	}
	outputPath := *output
	if outputPath == "" {
		outputPath = outputName(inputPath, ".tlg")
	}
	err = writeFile(outputPath, func(w io.Writer) error {
		return tlg.Encode(w, img, opts)
	})
	if err != nil {
		return fmt.Errorf("enc: %w", err)
	}

	fi, _ := os.Stat(outputPath)
	fmt.Fprintf(os.Stderr, "Encoded %s → %s (%d bytes)\n", inputPath, outputPath, fi.Size())
	return nil
}

// --- dec ---

func runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, jpeg, gif, bmp, tiff (auto-detect from extension if omitted)")
	verbose := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: gtlg dec [options] <input.tlg>")
	}
	setVerbose(*verbose)
	inputPath := fs.Arg(0)

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("dec: reading input: %w", err)
	}

	src, err := tlg.Load(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	img, err := src.ToImage()
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	outFmt := detectOutputFormat(*fmtFlag, *output)
	if _, ok := extensions[outFmt]; !ok {
		return fmt.Errorf("dec: unknown output format %q", outFmt)
	}
	if *output == "-" {
		return encodeImage(os.Stdout, img, outFmt)
	}
	outputPath := *output
	if outputPath == "" {
		outputPath = outputName(inputPath, extensions[outFmt])
	}
	err = writeFile(outputPath, func(w io.Writer) error {
		return encodeImage(w, img, outFmt)
	})
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	if len(src.Tags) > 0 {
		tagsPath := sidecarPath(outputPath)
		err := writeFile(tagsPath, func(w io.Writer) error {
			return writeTags(w, src.Tags)
		})
		if err != nil {
			return fmt.Errorf("dec: writing tags: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d tags to %s\n", len(src.Tags), tagsPath)
	}

	fmt.Fprintf(os.Stderr, "Decoded %s → %s\n", inputPath, outputPath)
	return nil
}

var extensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"bmp":  ".bmp",
	"tiff": ".tiff",
}

func detectOutputFormat(fmtFlag, outputPath string) string {
	if fmtFlag != "" {
		f := strings.ToLower(fmtFlag)
		switch f {
		case "jpg":
			return "jpeg"
		case "tif":
			return "tiff"
		}
		return f
	}
	if outputPath != "" && outputPath != "-" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".jpg", ".jpeg":
			return "jpeg"
		case ".gif":
			return "gif"
		case ".bmp":
			return "bmp"
		case ".tif", ".tiff":
			return "tiff"
		}
	}
	return "png"
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "gif":
		b := img.Bounds()
		paletted := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, b, img, b.Min)
		return gif.Encode(w, paletted, nil)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

// --- info ---

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("info: missing input file\nUsage: gtlg info <input.tlg>")
	}
	setVerbose(*verbose)
	inputPath := fs.Arg(0)

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("info: reading input: %w", err)
	}

	feat, err := tlg.GetFeatures(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	var tags map[string]string
	if feat.Wrapped {
		img, err := tlg.Load(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("info: %w", err)
		}
		tags = img.Tags
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}

	fmt.Printf("File:       %s\n", name)
	fmt.Printf("Format:     TLG%d\n", feat.Version)
	fmt.Printf("Dimensions: %d x %d\n", feat.Width, feat.Height)
	fmt.Printf("Color:      %v\n", feat.Color)
	fmt.Printf("Wrapped:    %v\n", feat.Wrapped)
	fmt.Printf("Tags:       %d\n", len(tags))
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("  %q = %q\n", k, tags[k])
	}
	fmt.Printf("File size:  %d bytes\n", len(data))
	return nil
}
