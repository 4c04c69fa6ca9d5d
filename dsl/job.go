package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// Job is the decoded form of a job file. Nil fields were not set and keep their defaults.
type Job struct {
	Name    string
	Version string

	Input       *string
	Output      *string
	Pages       *int
	DPI         *int
	Separator   *bool
	Aspect      *string // preserve | stretch
	OverlayText *bool
	Paper       *string

	Meta Meta
}

// Meta holds the optional meta { ... } section.
type Meta struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
}

// Decode 将语法树解释为 Job；未知配置项或类型不符时返回带位置的错误。
func Decode(f *File) (*Job, error) {
	if f == nil || f.Block == nil {
		return nil, fmt.Errorf("任务文件为空")
	}
	job := &Job{Name: f.Name, Version: f.Version}
	for _, st := range f.Block.Statements {
		switch {
		case st.Assignment != nil:
			if err := job.assign(st.Assignment); err != nil {
				return nil, err
			}
		case st.Section != nil:
			if st.Section.Name != "meta" {
				return nil, fmt.Errorf("%s: 未知配置段 %q", st.Section.Pos, st.Section.Name)
			}
			if err := job.Meta.decode(st.Section.Block); err != nil {
				return nil, err
			}
		}
	}
	return job, nil
}

func (j *Job) assign(a *Assignment) error {
	raw := a.Value.Raw()
	var err error
	switch strings.ToLower(a.Key) {
	case "input":
		j.Input = &raw
	case "output":
		j.Output = &raw
	case "pages":
		j.Pages, err = intValue(raw)
	case "dpi":
		j.DPI, err = intValue(raw)
	case "separator":
		j.Separator, err = boolValue(raw)
	case "overlay-text":
		j.OverlayText, err = boolValue(raw)
	case "aspect":
		mode := strings.ToLower(raw)
		if mode != "preserve" && mode != "stretch" {
			err = fmt.Errorf("期望 preserve 或 stretch，实际为 %q", raw)
			break
		}
		j.Aspect = &mode
	case "paper":
		j.Paper = &raw
	default:
		return fmt.Errorf("%s: 未知配置项 %q", a.Pos, a.Key)
	}
	if err != nil {
		return fmt.Errorf("%s: 配置项 %s: %w", a.Pos, a.Key, err)
	}
	return nil
}

func (m *Meta) decode(block *Block) error {
	for _, st := range block.Statements {
		a := st.Assignment
		if a == nil {
			return fmt.Errorf("%s: meta 中不允许嵌套配置段", st.Section.Pos)
		}
		switch strings.ToLower(a.Key) {
		case "title":
			m.Title = a.Value.Raw()
		case "author":
			m.Author = a.Value.Raw()
		case "subject":
			m.Subject = a.Value.Raw()
		case "keywords":
			if a.Value.Array != nil {
				for _, v := range a.Value.Array.Values {
					m.Keywords = append(m.Keywords, v.Raw())
				}
			} else {
				m.Keywords = append(m.Keywords, a.Value.Raw())
			}
		default:
			return fmt.Errorf("%s: 未知 meta 项 %q", a.Pos, a.Key)
		}
	}
	return nil
}

func intValue(raw string) (*int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("期望整数，实际为 %q", raw)
	}
	return &n, nil
}

func boolValue(raw string) (*bool, error) {
	switch strings.ToLower(raw) {
	case "true", "yes", "on":
		b := true
		return &b, nil
	case "false", "no", "off":
		b := false
		return &b, nil
	}
	return nil, fmt.Errorf("期望布尔值，实际为 %q", raw)
}
