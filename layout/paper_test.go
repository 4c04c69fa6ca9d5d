package layout

import (
	"math"
	"testing"
)

func TestLookupPaper(t *testing.T) {
	p, err := LookupPaper("a4")
	if err != nil || p != PaperA4 {
		t.Fatalf("a4: got %+v err=%v", p, err)
	}
	if l := p.Landscape(); l.Width != 297 || l.Height != 210 {
		t.Fatalf("A4 横向应为 297x210，实际 %+v", l)
	}
	if l := p.Landscape().Landscape(); l.Width != 297 {
		t.Fatalf("横向转换应幂等，实际 %+v", l)
	}

	custom, err := LookupPaper("11in x 8.5in")
	if err != nil {
		t.Fatalf("自定义尺寸解析失败: %v", err)
	}
	if math.Abs(custom.Width-279.4) > 1e-9 || math.Abs(custom.Height-215.9) > 1e-9 {
		t.Fatalf("自定义尺寸错误: %+v", custom)
	}

	if p, err := LookupPaper(""); err != nil || p != PaperA4 {
		t.Fatalf("空名称默认 A4，实际 %+v err=%v", p, err)
	}
	for _, bad := range []string{"B7", "0mm x 10mm", "xx x yy"} {
		if _, err := LookupPaper(bad); err == nil {
			t.Fatalf("%q 应解析失败", bad)
		}
	}
}
