package source

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/ByLCY/repack/layout"
)

var _ layout.Rasterizer = (*Document)(nil)

// Document 基于 go-fitz (MuPDF) 打开源 PDF，负责逐页栅格化与文本提取。
type Document struct {
	path string

	mu  sync.Mutex
	doc *fitz.Document
}

// Open opens the PDF at path for rasterization.
func Open(path string) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 PDF %s: %w", path, err)
	}
	return &Document{path: path, doc: doc}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

// Rasterize renders page (0-based) at dpi.
func (d *Document) Rasterize(page, dpi int) (image.Image, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("分辨率必须为正整数，当前为 %d", dpi)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if page < 0 || page >= d.doc.NumPage() {
		return nil, fmt.Errorf("页码 %d 超出范围（共 %d 页）", page+1, d.doc.NumPage())
	}
	img, err := d.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("渲染第 %d 页失败: %w", page+1, err)
	}
	return img, nil
}

// Text 尽力提取页面文本；页面没有内容流或提取出错时返回空字符串。
func (d *Document) Text(page int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page < 0 || page >= d.doc.NumPage() {
		return ""
	}
	text, err := d.doc.Text(page)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Close releases the underlying MuPDF document.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}
