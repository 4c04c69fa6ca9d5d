package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type debugDoc struct {
	SourcePages int `json:"sourcePages"`
	OutputPages int `json:"outputPages"`
	*Result
}

// WriteDebugJSON 将布局计划连同页数摘要写入 path，缺失的目录会被创建。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return fmt.Errorf("布局计划为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	doc := debugDoc{SourcePages: res.Request.TotalPages, OutputPages: len(res.Groups), Result: res}
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
