package layout

import (
	"fmt"
	"strings"
)

const (
	separatorWidthPt = 1.0
	overlayFontSize  = 12.0 // pt
	overlayInsetPt   = 10.0
	overlayBaseline  = 20.0 // pt，自页面顶部
)

// Partition 将 [0, total) 按顺序切成每组 perGroup 页，最后一组保存余数。
func Partition(total, perGroup int) []Group {
	if total <= 0 || perGroup < 1 {
		return nil
	}
	groups := make([]Group, 0, (total+perGroup-1)/perGroup)
	for start := 0; start < total; start += perGroup {
		end := min(start+perGroup, total)
		pages := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			pages = append(pages, i)
		}
		groups = append(groups, Group{Index: len(groups), Pages: pages})
	}
	return groups
}

// Slots 从左到右为组内每个页面分配等宽、满高的槽位。
func Slots(group Group, pageW, pageH float64) []Slot {
	n := group.Size()
	if n == 0 {
		return nil
	}
	slotW := pageW / float64(n)
	slots := make([]Slot, n)
	for i, page := range group.Pages {
		slots[i] = Slot{
			Page:     page,
			Position: i,
			X:        float64(i) * slotW,
			Y:        0,
			Width:    slotW,
			Height:   pageH,
		}
	}
	return slots
}

// Fit 计算源页面图片在槽位中的位置。
// 保持宽高比时先按高度适配，超宽再按宽度适配，水平居中、底部对齐；否则拉伸铺满槽位。
func Fit(slot Slot, srcW, srcH float64, preserve bool) Placement {
	w, h := slot.Width, slot.Height
	if preserve && srcW > 0 && srcH > 0 {
		ratio := srcW / srcH
		h = slot.Height
		w = h * ratio
		if w > slot.Width {
			w = slot.Width
			h = w / ratio
		}
	}
	return Placement{
		X:      slot.X + (slot.Width-w)/2,
		Y:      slot.Y + slot.Height - h,
		Width:  w,
		Height: h,
	}
}

// Separators 返回组内槽位边界处的竖线（共 g-1 条）；单页或未开启时为空。
func Separators(groupSize int, enabled bool, pageW, pageH float64) []Line {
	if !enabled || groupSize <= 1 {
		return nil
	}
	slotW := pageW / float64(groupSize)
	lines := make([]Line, 0, groupSize-1)
	for i := 1; i < groupSize; i++ {
		x := slotW * float64(i)
		lines = append(lines, Line{
			X1:    x,
			Y1:    0,
			X2:    x,
			Y2:    pageH,
			Color: Black,
			Width: separatorWidthPt * PtToMm,
		})
	}
	return lines
}

// Compose 将一组已栅格化的页面放入新页面，每次调用产生恰好一个输出页面。
func Compose(group Group, req Request, sources []SourcePage) (Page, error) {
	if len(sources) != group.Size() {
		return Page{}, fmt.Errorf("第 %d 组需要 %d 个页面，实际收到 %d 个", group.Index+1, group.Size(), len(sources))
	}
	page := Page{
		Index:  group.Index,
		Width:  req.PageWidth,
		Height: req.PageHeight,
		Images: make([]ImageBox, 0, len(sources)),
	}
	for i, slot := range Slots(group, req.PageWidth, req.PageHeight) {
		src := sources[i]
		if src.Index != slot.Page {
			return Page{}, fmt.Errorf("槽位 %d 期望源页面 %d，实际为 %d", i, slot.Page+1, src.Index+1)
		}
		if src.Image == nil {
			return Page{}, fmt.Errorf("源页面 %d 缺少位图", src.Index+1)
		}
		b := src.Image.Bounds()
		pl := Fit(slot, float64(b.Dx()), float64(b.Dy()), req.PreserveAspect)
		page.Images = append(page.Images, ImageBox{
			Page:   src.Index,
			X:      pl.X,
			Y:      pl.Y,
			Width:  pl.Width,
			Height: pl.Height,
			DPI:    req.DPI,
			Raster: src.Image,
		})

		if !req.OverlayText {
			continue
		}
		text := strings.Join(strings.Fields(src.Text), " ")
		if text == "" {
			continue
		}
		inset := overlayInsetPt * PtToMm
		page.Texts = append(page.Texts, TextBox{
			Content:  text,
			X:        slot.X + inset,
			Y:        overlayBaseline * PtToMm,
			MaxWidth: max(slot.Width-2*inset, 0),
			FontSize: overlayFontSize,
			Color:    Black,
		})
	}
	page.Lines = Separators(group.Size(), req.Separator, req.PageWidth, req.PageHeight)
	return page, nil
}

// BuildPage 栅格化组内页面并合成输出页面。任何栅格化错误都会中止。
func BuildPage(group Group, req Request, opts BuildOptions) (Page, error) {
	if opts.Rasterizer == nil {
		return Page{}, fmt.Errorf("栅格化后端不能为空")
	}
	sources := make([]SourcePage, 0, group.Size())
	for _, idx := range group.Pages {
		img, err := opts.Rasterizer.Rasterize(idx, req.DPI)
		if err != nil {
			return Page{}, fmt.Errorf("栅格化第 %d 页失败: %w", idx+1, err)
		}
		src := SourcePage{Index: idx, Image: img}
		if req.OverlayText {
			src.Text = opts.Rasterizer.Text(idx)
		}
		sources = append(sources, src)
	}
	return Compose(group, req, sources)
}

// Plan 校验请求并给出分组、槽位与分隔线，不涉及任何位图。
func Plan(req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	groups := Partition(req.TotalPages, req.PagesPerGroup)
	res := &Result{Request: req, Groups: make([]GroupPlan, 0, len(groups))}
	for _, g := range groups {
		res.Groups = append(res.Groups, GroupPlan{
			Group: g,
			Slots: Slots(g, req.PageWidth, req.PageHeight),
			Lines: Separators(g.Size(), req.Separator, req.PageWidth, req.PageHeight),
		})
	}
	return res, nil
}

// Progress 返回已处理页数占总页数的比例，范围 [0, 1]。
func Progress(processed, total int) float64 {
	if total <= 0 {
		return 1
	}
	p := float64(processed) / float64(total)
	return min(max(p, 0), 1)
}
