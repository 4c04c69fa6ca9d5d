package layout

import "image"

// BuildOptions 配置合成阶段所需的依赖，例如栅格化后端。
type BuildOptions struct {
	Rasterizer Rasterizer
}

// Rasterizer 负责把源文档的单页转换为位图，并尽力提取页面文本。
type Rasterizer interface {
	PageCount() int
	Rasterize(page int, dpi int) (image.Image, error)
	// Text 提取失败时返回空字符串。
	Text(page int) string
}
