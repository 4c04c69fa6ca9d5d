package layout

import "image"

// 该文件定义布局请求、分组、槽位与合成页面，供布局计算、渲染与调试 JSON 共用。
// 所有长度单位均为毫米，坐标原点在页面左上角。

// Request 描述一次重排任务的布局参数。
type Request struct {
	TotalPages     int     `json:"totalPages"`
	PagesPerGroup  int     `json:"pagesPerGroup"`
	Separator      bool    `json:"separator"`
	DPI            int     `json:"dpi"`
	PreserveAspect bool    `json:"preserveAspect"`
	OverlayText    bool    `json:"overlayText"`
	PageWidth      float64 `json:"pageWidth"`
	PageHeight     float64 `json:"pageHeight"`
}

// Group 是一组连续的源页面索引（从 0 开始），合并到同一个输出页面。
type Group struct {
	Index int   `json:"index"`
	Pages []int `json:"pages"`
}

// Size returns the number of source pages in the group.
func (g Group) Size() int { return len(g.Pages) }

// Slot 是输出页面中分配给某个源页面的矩形区域。
type Slot struct {
	Page     int     `json:"page"`
	Position int     `json:"position"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// Placement 是缩放后的图片在页面上的最终位置。
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SourcePage 是已经栅格化的源页面。
type SourcePage struct {
	Index int
	Image image.Image
	Text  string
}

// Page 是一个合成后的输出页面，写出后不再修改。
type Page struct {
	Index  int        `json:"index"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Images []ImageBox `json:"images"`
	Lines  []Line     `json:"lines,omitempty"`
	Texts  []TextBox  `json:"texts,omitempty"`
}

// ImageBox 用于描述栅格图片的位置与尺寸。
type ImageBox struct {
	Page   int         `json:"page"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	DPI    int         `json:"dpi"`
	Raster image.Image `json:"-"`
}

// TextBox 是单行文本，Y 为基线位置，内容超出 MaxWidth 时由渲染器截断。
type TextBox struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	MaxWidth float64 `json:"maxWidth"`
	FontSize float64 `json:"fontSize"` // pt
	Color    Color   `json:"color"`
}

// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（mm），<=0 时由渲染器给默认值
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var Black = Color{}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// Result 是不含栅格数据的布局计划，便于调试或预览。
type Result struct {
	Request Request     `json:"request"`
	Groups  []GroupPlan `json:"groups"`
}

// GroupPlan 记录单个输出页面的槽位与分隔线。
type GroupPlan struct {
	Group Group  `json:"group"`
	Slots []Slot `json:"slots"`
	Lines []Line `json:"lines,omitempty"`
}
