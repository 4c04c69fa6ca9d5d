package layout

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest 表示布局参数不合法，任务不会开始。
var ErrInvalidRequest = errors.New("invalid layout request")

// Validate checks the request invariants before any page is processed.
func (r Request) Validate() error {
	if r.PagesPerGroup < 1 {
		return fmt.Errorf("%w: 每页合并数必须为正整数，当前为 %d", ErrInvalidRequest, r.PagesPerGroup)
	}
	if r.DPI <= 0 {
		return fmt.Errorf("%w: 分辨率必须为正整数，当前为 %d", ErrInvalidRequest, r.DPI)
	}
	if r.TotalPages < 0 {
		return fmt.Errorf("%w: 总页数不能为负数，当前为 %d", ErrInvalidRequest, r.TotalPages)
	}
	if r.PageWidth <= 0 || r.PageHeight <= 0 {
		return fmt.Errorf("%w: 输出页面尺寸无效 %gx%g", ErrInvalidRequest, r.PageWidth, r.PageHeight)
	}
	return nil
}
