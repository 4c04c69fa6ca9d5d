package source

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ByLCY/repack/layout"
)

// ErrEncrypted 表示源文档已加密，不在支持范围内。
var ErrEncrypted = errors.New("encrypted PDF is not supported")

// PageDim 以毫米记录页面尺寸。
type PageDim struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info 是开始重排前对源文档的检查结果。
type Info struct {
	Path      string    `json:"path"`
	PageCount int       `json:"pageCount"`
	Pages     []PageDim `json:"pages"`
	Version   string    `json:"version"`
}

// Probe 使用 pdfcpu 读取并校验源文档，拒绝加密或无法解析的输入。
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("无法打开源文件 %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) {
			return Info{}, fmt.Errorf("%s: %w", path, ErrEncrypted)
		}
		return Info{}, fmt.Errorf("解析 PDF %s 失败: %w", path, err)
	}
	if ctx.Encrypt != nil {
		return Info{}, fmt.Errorf("%s: %w", path, ErrEncrypted)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return Info{}, fmt.Errorf("读取 %s 页数失败: %w", path, err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return Info{}, fmt.Errorf("读取 %s 页面尺寸失败: %w", path, err)
	}
	info := Info{
		Path:      path,
		PageCount: ctx.PageCount,
		Pages:     make([]PageDim, 0, len(dims)),
		Version:   ctx.VersionString(),
	}
	for _, d := range dims {
		info.Pages = append(info.Pages, PageDim{Width: d.Width * layout.PtToMm, Height: d.Height * layout.PtToMm})
	}
	return info, nil
}
