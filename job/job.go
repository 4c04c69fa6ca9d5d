package job

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ByLCY/repack/config"
	"github.com/ByLCY/repack/layout"
	"github.com/ByLCY/repack/logger"
	"github.com/ByLCY/repack/renderer"
	canvasrenderer "github.com/ByLCY/repack/renderer/canvas"
	"github.com/ByLCY/repack/source"
)

// SuccessMessage 是任务成功后的状态文本。
const SuccessMessage = "PDF reformatted successfully!"

// Status is the lifecycle state of a Task.
type Status int32

const (
	StatusPending Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Update 在每个输出页面写入后发布。
type Update struct {
	Group     int
	Processed int
	Total     int
	Progress  float64
}

// Summary describes a finished run.
type Summary struct {
	Output      string
	SourcePages int
	OutputPages int
	Duration    time.Duration
}

// Source is a rasterizable document that must be closed after use.
type Source interface {
	layout.Rasterizer
	io.Closer
}

// Deps 是 worker 的外部协作者，测试中可替换。
type Deps struct {
	Logger    logger.Logger
	Probe     func(path string) (source.Info, error)
	Open      func(path string) (Source, error)
	NewWriter func(w io.Writer, meta layout.DocumentMeta) renderer.PageWriter
}

// DefaultDeps wires pdfcpu probing, go-fitz rasterization and the canvas PDF writer.
func DefaultDeps(log logger.Logger) Deps {
	return Deps{
		Logger: log,
		Probe:  source.Probe,
		Open: func(path string) (Source, error) {
			return source.Open(path)
		},
		NewWriter: func(w io.Writer, meta layout.DocumentMeta) renderer.PageWriter {
			return canvasrenderer.NewWriter(w, meta, canvasrenderer.Options{})
		},
	}
}

// Task is a single background run. Progress and status are written only by the worker.
type Task struct {
	cfg  config.Config
	deps Deps

	progress atomic.Uint64 // math.Float64bits
	status   atomic.Int32
	message  atomic.Value // string

	updates chan Update
	done    chan struct{}

	summary Summary
	err     error
}

// Start 校验配置后在后台启动任务；配置非法时直接返回错误，不进行任何文件 I/O。
// 任务启动后不可取消，只会成功或失败。
func Start(cfg config.Config, deps Deps) (*Task, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Probe == nil || deps.Open == nil || deps.NewWriter == nil {
		return nil, fmt.Errorf("任务依赖不完整")
	}
	t := &Task{
		cfg:     cfg,
		deps:    deps,
		updates: make(chan Update, 64),
		done:    make(chan struct{}),
	}
	t.message.Store("")
	t.status.Store(int32(StatusRunning))
	go t.run()
	return t, nil
}

// Progress returns the fraction of source pages processed, in [0, 1].
func (t *Task) Progress() float64 { return math.Float64frombits(t.progress.Load()) }

// Status returns the current lifecycle state.
func (t *Task) Status() Status { return Status(t.status.Load()) }

// Message returns the human-readable status text; empty while running.
func (t *Task) Message() string { return t.message.Load().(string) }

// Updates 返回进度通道，任务结束时关闭。消费过慢时中间更新会被丢弃，Progress 始终是最新值。
func (t *Task) Updates() <-chan Update { return t.updates }

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes.
func (t *Task) Wait() (Summary, error) {
	<-t.done
	return t.summary, t.err
}

func (t *Task) run() {
	start := time.Now()
	log := t.deps.Logger
	summary, err := t.convert()
	summary.Duration = time.Since(start)

	t.summary, t.err = summary, err
	if err != nil {
		log.Error("PDF 重排失败", err, "input", t.cfg.Input, "output", t.cfg.Output)
		t.message.Store("Error: " + err.Error())
		t.status.Store(int32(StatusFailed))
	} else {
		log.Info("PDF 重排完成", "output", summary.Output, "source_pages", summary.SourcePages,
			"output_pages", summary.OutputPages, "duration", summary.Duration.Round(time.Millisecond))
		t.message.Store(SuccessMessage)
		t.status.Store(int32(StatusSucceeded))
	}
	close(t.updates)
	close(t.done)
}

func (t *Task) convert() (Summary, error) {
	cfg, log := t.cfg, t.deps.Logger
	summary := Summary{Output: cfg.Output}

	info, err := t.deps.Probe(cfg.Input)
	if err != nil {
		return summary, err
	}
	doc, err := t.deps.Open(cfg.Input)
	if err != nil {
		return summary, err
	}
	defer doc.Close()

	total := doc.PageCount()
	if total != info.PageCount {
		log.Warn("页数检查结果不一致，以渲染后端为准", "probe", info.PageCount, "rasterizer", total)
	}
	if total == 0 {
		return summary, fmt.Errorf("源文档 %s 没有页面", cfg.Input)
	}
	summary.SourcePages = total

	req, err := cfg.Request(total)
	if err != nil {
		return summary, err
	}
	if err := req.Validate(); err != nil {
		return summary, err
	}
	groups := layout.Partition(total, req.PagesPerGroup)
	log.Info("开始重排", "input", cfg.Input, "pages", total, "groups", len(groups),
		"per_group", req.PagesPerGroup, "dpi", req.DPI)

	out := cfg.Output
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return summary, fmt.Errorf("创建输出目录失败: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(out), ".repack-*.pdf")
	if err != nil {
		return summary, fmt.Errorf("创建临时文件失败: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	writer := t.deps.NewWriter(tmp, cfg.Meta)
	processed := 0
	for _, g := range groups {
		page, err := layout.BuildPage(g, req, layout.BuildOptions{Rasterizer: doc})
		if err != nil {
			return summary, fmt.Errorf("合成第 %d 个输出页面失败: %w", g.Index+1, err)
		}
		if err := writer.WritePage(page); err != nil {
			return summary, fmt.Errorf("写入第 %d 个输出页面失败: %w", g.Index+1, err)
		}
		summary.OutputPages++
		processed += g.Size()
		t.publish(Update{Group: g.Index, Processed: processed, Total: total, Progress: layout.Progress(processed, total)})
		log.Debug("输出页面完成", "group", g.Index+1, "processed", processed, "total", total)
	}

	if err := writer.Close(); err != nil {
		return summary, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return summary, fmt.Errorf("设置输出文件权限失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return summary, fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return summary, fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	committed = true
	return summary, nil
}

func (t *Task) publish(u Update) {
	t.progress.Store(math.Float64bits(u.Progress))
	select {
	case t.updates <- u:
	default:
	}
}
