package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/deepteams/tlg"
)

// binaryPath holds the path to the compiled gtlg binary. Set in TestMain.
var binaryPath string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "gtlg-test-bin-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "gtlg")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		// Tests that need the binary skip.
		binaryPath = ""
	}

	os.Exit(m.Run())
}

func skipIfNoBinary(t *testing.T) {
	t.Helper()
	if binaryPath == "" {
		t.Skip("gtlg binary not built; skipping")
	}
}

// runGtlg executes gtlg in dir with the given arguments and optional
// stdin data.
func runGtlg(t *testing.T, dir string, stdin []byte, args ...string) (stdout, stderr []byte, err error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	return img
}

// createTestPNG writes an opaque 8x8 gradient to dir/input.png.
func createTestPNG(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "input.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing test PNG: %v", err)
	}
	return path
}

func assertTLGHeader(t *testing.T, data []byte) {
	t.Helper()
	if !tlg.IsValid(data) {
		n := min(len(data), 11)
		t.Fatalf("output does not start with a TLG signature: %q", data[:n])
	}
}

// assertSamePixels compares m with the test gradient.
func assertSamePixels(t *testing.T, m image.Image) {
	t.Helper()
	want := testImage()
	if m.Bounds() != want.Bounds() {
		t.Fatalf("bounds = %v, want %v", m.Bounds(), want.Bounds())
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			got := color.NRGBAModel.Convert(m.At(x, y))
			if got != want.At(x, y) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want.At(x, y))
			}
		}
	}
}

// --- enc tests ---

func TestEnc_PNGToTLG(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pngPath := createTestPNG(t, dir)
	outPath := filepath.Join(dir, "output.tlg")

	_, stderr, err := runGtlg(t, dir, nil, "enc", "-o", outPath, pngPath)
	if err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	assertTLGHeader(t, data)

	img, err := tlg.Load(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Color != tlg.BGR24 {
		t.Fatalf("color = %v, want BGR24 for an opaque input", img.Color)
	}
}

func TestEnc_ColorFlags(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pngPath := createTestPNG(t, dir)

	for _, tt := range []struct {
		flag string
		want tlg.ColorType
	}{
		{"-gray", tlg.Grayscale8},
		{"-alpha", tlg.BGRA32},
	} {
		stdout, stderr, err := runGtlg(t, dir, nil, "enc", tt.flag, "-o", "-", pngPath)
		if err != nil {
			t.Fatalf("enc %s failed: %v\nstderr: %s", tt.flag, err, stderr)
		}
		feat, err := tlg.GetFeatures(bytes.NewReader(stdout))
		if err != nil {
			t.Fatal(err)
		}
		if feat.Color != tt.want {
			t.Errorf("enc %s: color = %v, want %v", tt.flag, feat.Color, tt.want)
		}
	}

	if _, _, err := runGtlg(t, dir, nil, "enc", "-gray", "-alpha", pngPath); err == nil {
		t.Fatal("expected error for -gray with -alpha")
	}
}

func TestEnc_DefaultOutputName(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	createTestPNG(t, dir)

	_, stderr, err := runGtlg(t, dir, nil, "enc", "input.png")
	if err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "input.tlg")); err != nil {
		t.Fatalf("default output not created: %v", err)
	}
}

func TestEnc_StdinStdout(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pngData, err := os.ReadFile(createTestPNG(t, dir))
	if err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := runGtlg(t, dir, pngData, "enc", "-o", "-", "-")
	if err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}
	assertTLGHeader(t, stdout)
}

func TestEnc_BMPAndTIFF(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()

	var bmpBuf, tiffBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, testImage()); err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(&tiffBuf, testImage(), nil); err != nil {
		t.Fatal(err)
	}

	for name, data := range map[string][]byte{"in.bmp": bmpBuf.Bytes(), "in.tiff": tiffBuf.Bytes()} {
		stdout, stderr, err := runGtlg(t, dir, data, "enc", "-o", "-", "-")
		if err != nil {
			t.Fatalf("%s: enc failed: %v\nstderr: %s", name, err, stderr)
		}
		m, err := tlg.Decode(bytes.NewReader(stdout))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		assertSamePixels(t, m)
	}
}

func TestEnc_MissingInput(t *testing.T) {
	skipIfNoBinary(t)
	_, stderr, err := runGtlg(t, t.TempDir(), nil, "enc")
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if !strings.Contains(string(stderr), "missing input") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestEnc_NonexistentFile(t *testing.T) {
	skipIfNoBinary(t)
	if _, _, err := runGtlg(t, t.TempDir(), nil, "enc", "does-not-exist.png"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

// --- dec tests ---

func TestDec_RoundTrip(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pngPath := createTestPNG(t, dir)
	tlgPath := filepath.Join(dir, "img.tlg")

	if _, stderr, err := runGtlg(t, dir, nil, "enc", "-o", tlgPath, pngPath); err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}

	for _, ext := range []string{".png", ".bmp", ".tiff"} {
		outPath := filepath.Join(dir, "out"+ext)
		if _, stderr, err := runGtlg(t, dir, nil, "dec", "-o", outPath, tlgPath); err != nil {
			t.Fatalf("dec %s failed: %v\nstderr: %s", ext, err, stderr)
		}
		f, err := os.Open(outPath)
		if err != nil {
			t.Fatal(err)
		}
		m, format, err := image.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decoding %s: %v", ext, err)
		}
		if "."+format != ext {
			t.Errorf("wrote %s for %s", format, ext)
		}
		assertSamePixels(t, m)
	}
}

func TestDec_FormatFlag(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pngData, _ := os.ReadFile(createTestPNG(t, dir))
	tlgData, _, err := runGtlg(t, dir, pngData, "enc", "-o", "-", "-")
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct{ flag, format string }{
		{"jpeg", "jpeg"},
		{"jpg", "jpeg"},
		{"gif", "gif"},
		{"bmp", "bmp"},
		{"tif", "tiff"},
	} {
		stdout, stderr, err := runGtlg(t, dir, tlgData, "dec", "-fmt", tt.flag, "-o", "-", "-")
		if err != nil {
			t.Fatalf("dec -fmt %s failed: %v\nstderr: %s", tt.flag, err, stderr)
		}
		_, format, err := image.DecodeConfig(bytes.NewReader(stdout))
		if err != nil || format != tt.format {
			t.Errorf("dec -fmt %s: format %q, %v", tt.flag, format, err)
		}
	}

	if _, _, err := runGtlg(t, dir, tlgData, "dec", "-fmt", "webp", "-o", "-", "-"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestDec_Tags(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pngPath := createTestPNG(t, dir)
	tagsIn := filepath.Join(dir, "in.tags")
	if err := os.WriteFile(tagsIn, []byte("# comment\ntitle=sample\n\nmode=a=b\nempty=\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tlgPath := filepath.Join(dir, "tagged.tlg")

	if _, stderr, err := runGtlg(t, dir, nil, "enc", "-tags", tagsIn, "-o", tlgPath, pngPath); err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}
	data, _ := os.ReadFile(tlgPath)
	img, err := tlg.Load(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"title": "sample", "mode": "a=b", "empty": ""}
	if !maps.Equal(img.Tags, want) {
		t.Fatalf("embedded tags = %q, want %q", img.Tags, want)
	}

	outPath := filepath.Join(dir, "tagged.png")
	if _, stderr, err := runGtlg(t, dir, nil, "dec", "-o", outPath, tlgPath); err != nil {
		t.Fatalf("dec failed: %v\nstderr: %s", err, stderr)
	}
	sidecar, err := os.ReadFile(filepath.Join(dir, "tagged.tags"))
	if err != nil {
		t.Fatalf("tags sidecar: %v", err)
	}
	if string(sidecar) != "empty=\nmode=a=b\ntitle=sample\n" {
		t.Fatalf("sidecar = %q", sidecar)
	}
	if _, err := os.Stat(outPath + ".tags"); !os.IsNotExist(err) {
		t.Fatalf("unexpected %s.tags: %v", outPath, err)
	}
}

func TestEnc_SidecarTags(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pngPath := createTestPNG(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "input.tags"), []byte(" title = sample \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tlgPath := filepath.Join(dir, "out.tlg")
	if _, stderr, err := runGtlg(t, dir, nil, "enc", "-o", tlgPath, pngPath); err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}
	data, _ := os.ReadFile(tlgPath)
	img, err := tlg.Load(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if want := map[string]string{"title": "sample"}; !maps.Equal(img.Tags, want) {
		t.Fatalf("embedded tags = %q, want %q", img.Tags, want)
	}

	// An explicit -tags file that does not exist is an error.
	if _, _, err := runGtlg(t, dir, nil, "enc", "-tags", filepath.Join(dir, "missing.tags"), "-o", tlgPath, pngPath); err == nil {
		t.Fatal("expected error for missing -tags file")
	}
}

func TestDec_InvalidInput(t *testing.T) {
	skipIfNoBinary(t)
	_, stderr, err := runGtlg(t, t.TempDir(), []byte("not a tlg image"), "dec", "-o", "-", "-")
	if err == nil {
		t.Fatal("expected error for invalid input")
	}
	if !strings.Contains(string(stderr), "invalid format") {
		t.Errorf("stderr = %q", stderr)
	}
}

// --- info tests ---

func TestInfo(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	pngPath := createTestPNG(t, dir)
	tagsIn := filepath.Join(dir, "in.tags")
	os.WriteFile(tagsIn, []byte("k=v\n"), 0o644)
	tlgPath := filepath.Join(dir, "img.tlg")
	if _, stderr, err := runGtlg(t, dir, nil, "enc", "-tags", tagsIn, "-o", tlgPath, pngPath); err != nil {
		t.Fatalf("enc failed: %v\nstderr: %s", err, stderr)
	}

	stdout, stderr, err := runGtlg(t, dir, nil, "info", tlgPath)
	if err != nil {
		t.Fatalf("info failed: %v\nstderr: %s", err, stderr)
	}
	out := string(stdout)
	for _, want := range []string{"Format:     TLG5", "Dimensions: 8 x 8", "Color:      BGR24", "Wrapped:    true", `"k" = "v"`, "File size:"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestInfo_Stdin(t *testing.T) {
	skipIfNoBinary(t)
	var buf bytes.Buffer
	if err := tlg.Encode(&buf, testImage(), &tlg.EncoderOptions{Color: tlg.Grayscale8}); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := runGtlg(t, t.TempDir(), buf.Bytes(), "info", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(stdout), "<stdin>") || !strings.Contains(string(stdout), "Grayscale8") {
		t.Fatalf("info output:\n%s", stdout)
	}
}

func TestInfo_MissingInput(t *testing.T) {
	skipIfNoBinary(t)
	if _, _, err := runGtlg(t, t.TempDir(), nil, "info"); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestUnknownCommand(t *testing.T) {
	skipIfNoBinary(t)
	if _, _, err := runGtlg(t, t.TempDir(), nil, "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestHelp(t *testing.T) {
	skipIfNoBinary(t)
	_, stderr, err := runGtlg(t, t.TempDir(), nil, "help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(string(stderr), "Usage:") {
		t.Errorf("help output = %q", stderr)
	}
}

// --- in-process helpers ---

func TestReadTags(t *testing.T) {
	tags, err := readTags(strings.NewReader("a=1\r\n# skip\n\nb==2\nc=\n  key =  spaced value \t\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"a": "1", "b": "=2", "c": "", "key": "spaced value"}
	if !maps.Equal(tags, want) {
		t.Fatalf("readTags = %q, want %q", tags, want)
	}
	if _, err := readTags(strings.NewReader("ok=1\nbroken\n")); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestSidecarPath(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"out.png", "out.tags"},
		{filepath.Join("dir", "img.tlg"), filepath.Join("dir", "img.tags")},
		{"noext", "noext.tags"},
	} {
		if got := sidecarPath(tt.in); got != tt.want {
			t.Errorf("sidecarPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteTags(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTags(&buf, map[string]string{"z": "1", "a": "2"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a=2\nz=1\n" {
		t.Fatalf("writeTags = %q", buf.String())
	}
}

func TestDetectOutputFormat(t *testing.T) {
	tests := []struct{ flag, path, want string }{
		{"", "", "png"},
		{"", "-", "png"},
		{"", "x.JPG", "jpeg"},
		{"", "x.gif", "gif"},
		{"", "x.bmp", "bmp"},
		{"", "x.tif", "tiff"},
		{"PNG", "x.bmp", "png"},
		{"tif", "", "tiff"},
	}
	for _, tt := range tests {
		if got := detectOutputFormat(tt.flag, tt.path); got != tt.want {
			t.Errorf("detectOutputFormat(%q, %q) = %q, want %q", tt.flag, tt.path, got, tt.want)
		}
	}
}
