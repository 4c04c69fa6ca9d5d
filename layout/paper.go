package layout

import (
	"fmt"
	"strings"
)

// PaperSize 以毫米记录纸张尺寸（纵向）。
type PaperSize struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var (
	PaperA3     = PaperSize{Name: "A3", Width: 297, Height: 420}
	PaperA4     = PaperSize{Name: "A4", Width: 210, Height: 297}
	PaperA5     = PaperSize{Name: "A5", Width: 148, Height: 210}
	PaperLetter = PaperSize{Name: "Letter", Width: 215.9, Height: 279.4}
	PaperLegal  = PaperSize{Name: "Legal", Width: 215.9, Height: 355.6}
)

var paperSizes = map[string]PaperSize{
	"a3":     PaperA3,
	"a4":     PaperA4,
	"a5":     PaperA5,
	"letter": PaperLetter,
	"legal":  PaperLegal,
}

// Landscape returns the paper with its long edge horizontal.
func (p PaperSize) Landscape() PaperSize {
	if p.Width >= p.Height {
		return p
	}
	return PaperSize{Name: p.Name, Width: p.Height, Height: p.Width}
}

// LookupPaper 解析纸张名称（A4/Letter 等，大小写不敏感）或 "宽 x 高" 形式的自定义尺寸，例如 "297mm x 210mm"。
func LookupPaper(name string) (PaperSize, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return PaperA4, nil
	}
	if p, ok := paperSizes[key]; ok {
		return p, nil
	}
	parts := strings.Split(key, "x")
	if len(parts) != 2 {
		return PaperSize{}, fmt.Errorf("未知纸张尺寸 %q", name)
	}
	w, okW := ParseRawLengthStr(parts[0])
	h, okH := ParseRawLengthStr(parts[1])
	if !okW || !okH || w.ToMM() <= 0 || h.ToMM() <= 0 {
		return PaperSize{}, fmt.Errorf("无法解析纸张尺寸 %q", name)
	}
	return PaperSize{Name: strings.TrimSpace(name), Width: w.ToMM(), Height: h.ToMM()}, nil
}
