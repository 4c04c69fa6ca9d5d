package fonts

import "testing"

func TestLoad(t *testing.T) {
	for _, name := range []string{"", "go-regular", "builtin:go-mono", "built-in:GO-BOLD"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("%q: 字体数据为空", name)
		}
	}
	if _, err := Load("Inter-Regular"); err == nil {
		t.Fatalf("未知字体应报错")
	}
}
