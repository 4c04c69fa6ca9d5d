package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/image/draw"

	"github.com/ByLCY/repack/fonts"
	"github.com/ByLCY/repack/layout"
	"github.com/ByLCY/repack/renderer"
)

const defaultLineWidth = 1.0 * layout.PtToMm

// Writer streams composed pages into a PDF via github.com/tdewolff/canvas.
type Writer struct {
	out  io.Writer
	meta layout.DocumentMeta
	opts Options

	pdf   *pdf.PDF
	pages int

	family *canvas.FontFamily
}

var _ renderer.PageWriter = (*Writer)(nil)

// Options configures the canvas writer.
type Options struct {
	Font   string            // 文本叠加字体，见 fonts.Load；为空时使用 fonts.Default
	Kernel draw.Interpolator // 位图重采样算法，为空时使用 CatmullRom
}

// NewWriter creates a PDF writer on out. The PDF is opened lazily by the first WritePage.
func NewWriter(out io.Writer, meta layout.DocumentMeta, opts Options) *Writer {
	if opts.Kernel == nil {
		opts.Kernel = draw.CatmullRom
	}
	return &Writer{out: out, meta: meta, opts: opts}
}

// Pages returns the number of pages written so far.
func (w *Writer) Pages() int { return w.pages }

// WritePage renders page and appends it to the document.
func (w *Writer) WritePage(page layout.Page) error {
	if page.Width <= 0 || page.Height <= 0 {
		return fmt.Errorf("页面尺寸无效 %gx%g", page.Width, page.Height)
	}
	if w.pdf == nil {
		w.pdf = pdf.New(w.out, page.Width, page.Height, nil)
		w.applyMeta()
	} else {
		w.pdf.NewPage(page.Width, page.Height)
	}

	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	if err := w.drawImages(ctx, page.Images); err != nil {
		return fmt.Errorf("绘制第 %d 页图片失败: %w", page.Index+1, err)
	}
	w.drawLines(ctx, page.Lines)
	if err := w.drawTexts(ctx, page.Texts); err != nil {
		return fmt.Errorf("绘制第 %d 页文本失败: %w", page.Index+1, err)
	}
	c.RenderTo(w.pdf)
	w.pages++
	return nil
}

// Close finishes the PDF document.
func (w *Writer) Close() error {
	if w.pdf == nil {
		return fmt.Errorf("缺少可写入的页面")
	}
	if err := w.pdf.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}

func (w *Writer) applyMeta() {
	keywords := strings.Join(w.meta.Keywords, ", ")
	w.pdf.SetInfo(w.meta.Title, w.meta.Subject, keywords, w.meta.Author, w.meta.Creator)
}

func (w *Writer) drawImages(ctx *canvas.Context, images []layout.ImageBox) error {
	for _, box := range images {
		if box.Raster == nil {
			return fmt.Errorf("源页面 %d 缺少位图", box.Page+1)
		}
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		dpi := box.DPI
		if dpi <= 0 {
			dpi = 72
		}
		scaled := Resample(box.Raster, layout.PixelsFor(box.Width, dpi), layout.PixelsFor(box.Height, dpi), w.opts.Kernel)
		dpmm := float64(scaled.Bounds().Dx()) / box.Width
		ctx.DrawImage(box.X, box.Y, scaled, canvas.DPMM(dpmm))
	}
	return nil
}

// Resample scales src to exactly wPx×hPx pixels; the aspect ratio is whatever the caller asks for.
func Resample(src image.Image, wPx, hPx int, kernel draw.Interpolator) *image.RGBA {
	if kernel == nil {
		kernel = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, wPx, hPx))
	kernel.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func (w *Writer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		width := ln.Width
		if width <= 0 {
			width = defaultLineWidth
		}
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(width)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
}

func (w *Writer) drawTexts(ctx *canvas.Context, texts []layout.TextBox) error {
	for _, tb := range texts {
		if tb.Content == "" {
			continue
		}
		family, err := w.fontFamily()
		if err != nil {
			return err
		}
		face := family.Face(tb.FontSize, colorFromLayout(tb.Color), canvas.FontRegular, canvas.FontNormal)
		content := clipToWidth(tb.Content, tb.MaxWidth, face)
		if content == "" {
			continue
		}
		ctx.DrawText(tb.X, tb.Y, canvas.NewTextLine(face, content, canvas.Left))
	}
	return nil
}

func (w *Writer) fontFamily() (*canvas.FontFamily, error) {
	if w.family != nil {
		return w.family, nil
	}
	data, err := fonts.Load(w.opts.Font)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("repack-overlay")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载叠加字体失败: %w", err)
	}
	w.family = family
	return family, nil
}

// clipToWidth 截断文本使其宽度（mm）不超过 limit；limit<=0 表示不限制。
func clipToWidth(content string, limit float64, face *canvas.FontFace) string {
	if limit <= 0 || face.TextWidth(content) <= limit {
		return content
	}
	runes := []rune(content)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if face.TextWidth(string(runes[:mid])) <= limit {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return strings.TrimRight(string(runes[:lo]), " ")
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
