package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/repack/config"
	"github.com/ByLCY/repack/dsl"
	"github.com/ByLCY/repack/job"
	"github.com/ByLCY/repack/layout"
	"github.com/ByLCY/repack/logger"
	"github.com/ByLCY/repack/source"
)

type options struct {
	jobPath   string
	debugPath string
	dryRun    bool
}

func main() {
	cfg := config.FromEnv()

	jobPath := flag.String("job", "", "任务描述文件路径")
	input := flag.String("in", "", "输入 PDF 路径")
	output := flag.String("out", "", "输出 PDF 路径，可使用 ${stem} ${dir} ${pages} ${dpi} 占位符")
	pages := flag.Int("pages", cfg.PagesPerGroup, "每个输出页面合并的源页数")
	dpi := flag.Int("dpi", cfg.DPI, "栅格化分辨率")
	separator := flag.Bool("separator", cfg.Separator, "在相邻页面之间绘制分隔线")
	aspect := flag.String("aspect", aspectName(cfg.PreserveAspect), "preserve 或 stretch")
	overlay := flag.Bool("overlay", cfg.OverlayText, "在每个页面上叠加源页文本")
	paper := flag.String("paper", cfg.Paper, "输出纸张，如 A4、Letter 或 420mm x 297mm")
	strictDPI := flag.Bool("strict-dpi", cfg.StrictDPI, "只允许预设分辨率")
	logLevel := flag.String("log-level", cfg.LogLevel, "日志级别")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	dryRun := flag.Bool("dry-run", false, "只计算布局，不生成 PDF")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	opts := options{jobPath: *jobPath, debugPath: *debug, dryRun: *dryRun}
	overrides := func(c *config.Config) {
		if set["in"] {
			c.Input = *input
		}
		if set["out"] {
			c.Output = *output
		}
		if set["pages"] {
			c.PagesPerGroup = *pages
		}
		if set["dpi"] {
			c.DPI = *dpi
		}
		if set["separator"] {
			c.Separator = *separator
		}
		if set["aspect"] {
			c.PreserveAspect = *aspect != "stretch"
		}
		if set["overlay"] {
			c.OverlayText = *overlay
		}
		if set["paper"] {
			c.Paper = *paper
		}
		if set["strict-dpi"] {
			c.StrictDPI = *strictDPI
		}
		if set["log-level"] {
			c.LogLevel = *logLevel
		}
	}
	if set["aspect"] && *aspect != "preserve" && *aspect != "stretch" {
		log.Fatalf("无效的 aspect 参数 %q，只支持 preserve 或 stretch", *aspect)
	}

	if err := run(cfg, opts, overrides, os.Stdout); err != nil {
		log.Fatalf("重排 PDF 失败: %v", err)
	}
}

// run 串联配置合并、布局预览与后台重排任务。
func run(cfg config.Config, opts options, overrides func(*config.Config), out io.Writer) error {
	if opts.jobPath != "" {
		file, err := os.Open(opts.jobPath)
		if err != nil {
			return fmt.Errorf("无法打开任务文件 %s: %w", opts.jobPath, err)
		}
		defer file.Close()

		j, err := dsl.Parse(file)
		if err != nil {
			return fmt.Errorf("解析任务文件失败: %w", err)
		}
		cfg.ApplyJob(j)
	}
	if overrides != nil {
		overrides(&cfg)
	}
	if cfg.Output == "" && cfg.Input != "" {
		cfg.Output = filepath.Join("${dir}", "${stem}-${pages}up.pdf")
	}
	cfg.ResolveOutput()
	if err := cfg.Validate(); err != nil {
		return err
	}

	lg := logger.New(cfg.LogLevel, os.Stderr)

	if opts.dryRun || opts.debugPath != "" {
		info, err := source.Probe(cfg.Input)
		if err != nil {
			return err
		}
		req, err := cfg.Request(info.PageCount)
		if err != nil {
			return err
		}
		plan, err := layout.Plan(req)
		if err != nil {
			return fmt.Errorf("布局计算失败: %w", err)
		}
		if opts.debugPath != "" {
			if err := writeDebug(plan, opts.debugPath); err != nil {
				return err
			}
		}
		if opts.dryRun {
			fmt.Fprintf(out, "%s：%d 页 -> %d 页（每页 %d 个）\n", cfg.Input, info.PageCount, len(plan.Groups), req.PagesPerGroup)
			return nil
		}
	}

	task, err := job.Start(cfg, job.DefaultDeps(lg))
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error {
		for u := range task.Updates() {
			fmt.Fprintf(out, "\r%s %3.0f%% (%d/%d)", progressBar(u.Progress, 30), u.Progress*100, u.Processed, u.Total)
		}
		fmt.Fprintln(out)
		return nil
	})
	summary, runErr := task.Wait()
	if err := g.Wait(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintln(out, task.Message())
	fmt.Fprintf(out, "已生成 PDF：%s（%d 页，用时 %s）\n", summary.Output, summary.OutputPages, summary.Duration.Round(time.Millisecond))
	return nil
}

func progressBar(p float64, width int) string {
	n := int(p * float64(width))
	n = min(max(n, 0), width)
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", width-n) + "]"
}

func aspectName(preserve bool) string {
	if preserve {
		return "preserve"
	}
	return "stretch"
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
