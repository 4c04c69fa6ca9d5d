package job

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/repack/config"
	"github.com/ByLCY/repack/layout"
	"github.com/ByLCY/repack/logger"
	"github.com/ByLCY/repack/renderer"
	"github.com/ByLCY/repack/source"
)

type fakeSource struct {
	pages  int
	failOn int
	closed atomic.Bool
}

func (f *fakeSource) PageCount() int { return f.pages }

func (f *fakeSource) Rasterize(page, dpi int) (image.Image, error) {
	if page == f.failOn {
		return nil, errors.New("corrupt page")
	}
	return image.NewRGBA(image.Rect(0, 0, 50, 70)), nil
}

func (f *fakeSource) Text(page int) string { return fmt.Sprintf("page %d", page+1) }

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeWriter struct {
	out   io.Writer
	pages []layout.Page
}

func (w *fakeWriter) WritePage(page layout.Page) error {
	w.pages = append(w.pages, page)
	return nil
}

func (w *fakeWriter) Close() error {
	if len(w.pages) == 0 {
		return errors.New("no pages")
	}
	_, err := fmt.Fprintf(w.out, "%%PDF fake %d pages", len(w.pages))
	return err
}

type recorder struct {
	probes int
	opens  int
	src    *fakeSource
	writer *fakeWriter
}

func (r *recorder) deps() Deps {
	return Deps{
		Logger: logger.Nop(),
		Probe: func(path string) (source.Info, error) {
			r.probes++
			return source.Info{Path: path, PageCount: r.src.pages}, nil
		},
		Open: func(path string) (Source, error) {
			r.opens++
			return r.src, nil
		},
		NewWriter: func(w io.Writer, meta layout.DocumentMeta) renderer.PageWriter {
			r.writer = &fakeWriter{out: w}
			return r.writer
		},
	}
}

func testConfig(t *testing.T) config.Config {
	c := config.Default()
	c.Input = "in.pdf"
	c.Output = filepath.Join(t.TempDir(), "nested", "out.pdf")
	return c
}

func waitTask(t *testing.T, task *Task) (Summary, error) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("task did not finish")
	}
	return task.Wait()
}

func TestRunComposesGroupsInOrder(t *testing.T) {
	rec := &recorder{src: &fakeSource{pages: 5, failOn: -1}}
	cfg := testConfig(t)
	cfg.Separator = true

	task, err := Start(cfg, rec.deps())
	require.NoError(t, err)

	var seen []Update
	for u := range task.Updates() {
		seen = append(seen, u)
	}
	summary, err := waitTask(t, task)
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, task.Status())
	assert.Equal(t, SuccessMessage, task.Message())
	assert.Equal(t, 1.0, task.Progress())
	assert.Equal(t, 5, summary.SourcePages)
	assert.Equal(t, 3, summary.OutputPages)
	assert.True(t, rec.src.closed.Load())

	require.Len(t, rec.writer.pages, 3)
	assert.Len(t, rec.writer.pages[0].Images, 2)
	assert.Len(t, rec.writer.pages[0].Lines, 1)
	assert.Len(t, rec.writer.pages[2].Images, 1)
	assert.Empty(t, rec.writer.pages[2].Lines)

	require.Len(t, seen, 3)
	last := 0.0
	for _, u := range seen {
		assert.GreaterOrEqual(t, u.Progress, last)
		last = u.Progress
	}
	assert.InDelta(t, 0.4, seen[0].Progress, 1e-9)
	assert.Equal(t, 1.0, last)

	data, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestInvalidConfigRejectedBeforeIO(t *testing.T) {
	for name, mutate := range map[string]func(*config.Config){
		"zero dpi":       func(c *config.Config) { c.DPI = 0 },
		"negative pages": func(c *config.Config) { c.PagesPerGroup = -1 },
		"no input":       func(c *config.Config) { c.Input = "" },
	} {
		rec := &recorder{src: &fakeSource{pages: 3, failOn: -1}}
		cfg := testConfig(t)
		mutate(&cfg)

		task, err := Start(cfg, rec.deps())
		require.Error(t, err, name)
		assert.Nil(t, task, name)
		assert.True(t, errors.Is(err, config.ErrInvalidConfig), name)
		assert.Zero(t, rec.probes, name)
		assert.Zero(t, rec.opens, name)
		_, statErr := os.Stat(filepath.Dir(cfg.Output))
		assert.True(t, os.IsNotExist(statErr), name)
	}
}

func TestRasterFailureAbortsRun(t *testing.T) {
	rec := &recorder{src: &fakeSource{pages: 4, failOn: 2}}
	cfg := testConfig(t)

	task, err := Start(cfg, rec.deps())
	require.NoError(t, err)
	_, err = waitTask(t, task)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, task.Status())
	assert.Contains(t, task.Message(), "Error: ")
	assert.Contains(t, task.Message(), "corrupt page")
	assert.InDelta(t, 0.5, task.Progress(), 1e-9)
	assert.True(t, rec.src.closed.Load())

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(cfg.Output), ".repack-*"))
	assert.Empty(t, leftovers)
}

func TestProbeFailureAndEmptySource(t *testing.T) {
	rec := &recorder{src: &fakeSource{pages: 0, failOn: -1}}
	deps := rec.deps()
	task, err := Start(testConfig(t), deps)
	require.NoError(t, err)
	_, err = waitTask(t, task)
	assert.ErrorContains(t, err, "没有页面")

	deps.Probe = func(string) (source.Info, error) { return source.Info{}, source.ErrEncrypted }
	task, err = Start(testConfig(t), deps)
	require.NoError(t, err)
	_, err = waitTask(t, task)
	assert.ErrorIs(t, err, source.ErrEncrypted)
	assert.Equal(t, StatusFailed, task.Status())
}

func TestOverlayTextReachesWriter(t *testing.T) {
	rec := &recorder{src: &fakeSource{pages: 2, failOn: -1}}
	cfg := testConfig(t)
	cfg.OverlayText = true
	cfg.PagesPerGroup = 1

	task, err := Start(cfg, rec.deps())
	require.NoError(t, err)
	_, err = waitTask(t, task)
	require.NoError(t, err)

	require.Len(t, rec.writer.pages, 2)
	require.Len(t, rec.writer.pages[1].Texts, 1)
	assert.Equal(t, "page 2", rec.writer.pages[1].Texts[0].Content)
}

// TestEndToEnd 使用真实的 pdfcpu/go-fitz/canvas 依赖处理一个 3 页 PDF。
func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	f, err := os.Create(in)
	require.NoError(t, err)
	w := pdf.New(f, 210, 297, nil)
	for i := 0; i < 3; i++ {
		if i > 0 {
			w.NewPage(210, 297)
		}
		c := canvas.New(210, 297)
		ctx := canvas.NewContext(c)
		ctx.SetFillColor(canvas.Black)
		ctx.DrawPath(30, 30, canvas.Rectangle(100, 50))
		c.RenderTo(w)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	cfg := config.Default()
	cfg.Input = in
	cfg.Output = filepath.Join(dir, "${stem}-${pages}up.pdf")
	cfg.DPI = 72
	cfg.Separator = true
	cfg.ResolveOutput()

	task, err := Start(cfg, DefaultDeps(logger.Nop()))
	require.NoError(t, err)
	summary, err := waitTask(t, task)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "in-2up.pdf"), summary.Output)

	n, err := api.PageCountFile(summary.Output)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
