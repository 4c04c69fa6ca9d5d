package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ByLCY/repack/binding"
	"github.com/ByLCY/repack/dsl"
	"github.com/ByLCY/repack/layout"
)

// ErrInvalidConfig 是所有配置校验错误的哨兵值。
var ErrInvalidConfig = errors.New("invalid configuration")

// DPIPresets 是常用的输出分辨率。
var DPIPresets = []int{72, 150, 300, 600, 1200, 2500}

// Config 是一次重排任务的完整配置，由调用方构造后传入 worker。
type Config struct {
	Input          string
	Output         string
	PagesPerGroup  int
	DPI            int
	Separator      bool
	PreserveAspect bool
	OverlayText    bool
	Paper          string
	StrictDPI      bool // 只允许 DPIPresets 中的分辨率
	LogLevel       string
	Meta           layout.DocumentMeta
}

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		PagesPerGroup:  2,
		DPI:            150,
		Separator:      false,
		PreserveAspect: true,
		OverlayText:    false,
		Paper:          "A4",
		LogLevel:       "info",
		Meta:           layout.DocumentMeta{Creator: "repack"},
	}
}

// FromEnv 读取 .env（不存在时忽略）与环境变量覆盖默认值；无法解析的值保持默认。
func FromEnv() Config {
	_ = godotenv.Load()

	c := Default()
	c.PagesPerGroup = getEnvIntOrDefault("REPACK_PAGES", c.PagesPerGroup)
	c.DPI = getEnvIntOrDefault("REPACK_DPI", c.DPI)
	c.Separator = getEnvBoolOrDefault("REPACK_SEPARATOR", c.Separator)
	c.OverlayText = getEnvBoolOrDefault("REPACK_OVERLAY", c.OverlayText)
	c.StrictDPI = getEnvBoolOrDefault("REPACK_STRICT_DPI", c.StrictDPI)
	c.Paper = getEnvOrDefault("REPACK_PAPER", c.Paper)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	switch strings.ToLower(os.Getenv("REPACK_ASPECT")) {
	case "preserve":
		c.PreserveAspect = true
	case "stretch":
		c.PreserveAspect = false
	}
	return c
}

// ApplyJob merges the fields set in a job file over c.
func (c *Config) ApplyJob(job *dsl.Job) {
	if job == nil {
		return
	}
	if job.Input != nil {
		c.Input = *job.Input
	}
	if job.Output != nil {
		c.Output = *job.Output
	}
	if job.Pages != nil {
		c.PagesPerGroup = *job.Pages
	}
	if job.DPI != nil {
		c.DPI = *job.DPI
	}
	if job.Separator != nil {
		c.Separator = *job.Separator
	}
	if job.OverlayText != nil {
		c.OverlayText = *job.OverlayText
	}
	if job.Aspect != nil {
		c.PreserveAspect = *job.Aspect == "preserve"
	}
	if job.Paper != nil {
		c.Paper = *job.Paper
	}
	if job.Meta.Title != "" {
		c.Meta.Title = job.Meta.Title
	}
	if job.Meta.Author != "" {
		c.Meta.Author = job.Meta.Author
	}
	if job.Meta.Subject != "" {
		c.Meta.Subject = job.Meta.Subject
	}
	if len(job.Meta.Keywords) > 0 {
		c.Meta.Keywords = slices.Clone(job.Meta.Keywords)
	}
}

// ResolveOutput 展开输出路径中的 ${stem}/${dir}/${pages}/${dpi} 等占位符。
func (c *Config) ResolveOutput() {
	if c.Input == "" || c.Output == "" {
		return
	}
	vars := binding.PathVars(c.Input, map[string]any{
		"pages": c.PagesPerGroup,
		"dpi":   c.DPI,
		"paper": c.Paper,
	})
	c.Output = binding.Interpolate(c.Output, vars)
}

// Validate 在任何文件 I/O 之前检查配置。
func (c Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return &ValidationError{Field: "input", Message: "请指定输入 PDF 文件"}
	}
	if strings.TrimSpace(c.Output) == "" {
		return &ValidationError{Field: "output", Message: "请指定输出 PDF 文件"}
	}
	if left := binding.Unresolved(c.Output); len(left) > 0 {
		return &ValidationError{Field: "output", Message: fmt.Sprintf("输出路径中存在未解析的占位符 %s", strings.Join(left, ", "))}
	}
	if c.PagesPerGroup <= 0 {
		return &ValidationError{Field: "pages", Message: fmt.Sprintf("每页合并数必须为正整数，当前为 %d", c.PagesPerGroup)}
	}
	if c.DPI <= 0 {
		return &ValidationError{Field: "dpi", Message: fmt.Sprintf("分辨率必须为正整数，当前为 %d", c.DPI)}
	}
	if c.StrictDPI && !slices.Contains(DPIPresets, c.DPI) {
		return &ValidationError{Field: "dpi", Message: fmt.Sprintf("分辨率 %d 不在预设 %v 中", c.DPI, DPIPresets)}
	}
	if _, err := layout.LookupPaper(c.Paper); err != nil {
		return &ValidationError{Field: "paper", Message: err.Error()}
	}
	return nil
}

// Request builds the layout request for a source with totalPages pages.
func (c Config) Request(totalPages int) (layout.Request, error) {
	paper, err := layout.LookupPaper(c.Paper)
	if err != nil {
		return layout.Request{}, &ValidationError{Field: "paper", Message: err.Error()}
	}
	page := paper.Landscape()
	return layout.Request{
		TotalPages:     totalPages,
		PagesPerGroup:  c.PagesPerGroup,
		Separator:      c.Separator,
		DPI:            c.DPI,
		PreserveAspect: c.PreserveAspect,
		OverlayText:    c.OverlayText,
		PageWidth:      page.Width,
		PageHeight:     page.Height,
	}, nil
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
