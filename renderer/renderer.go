package renderer

import "github.com/ByLCY/repack/layout"

// PageWriter 将合成页面逐页追加到输出文档，例如 PDF。
// WritePage 按调用顺序写入页面；Close 结束文档，未写入任何页面时返回错误。
type PageWriter interface {
	WritePage(page layout.Page) error
	Close() error
}
