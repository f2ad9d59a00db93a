package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/happyhackingspace/wordseg"
	"github.com/happyhackingspace/wordseg/internal/storage"
	"github.com/happyhackingspace/wordseg/lstm"
)

const modelURL = "https://huggingface.co/datasets/happyhackingspace/wordseg/resolve/main/model.json"

// loadSegmenter resolves --model as a file path, then as a model name in
// the data folder, then falls back to auto-detection and download.
func (c *CLI) loadSegmenter() (*wordseg.Segmenter, error) {
	start := time.Now()
	s, err := c.resolveModel(c.cfg.GetString("model"))
	if err != nil {
		return nil, err
	}
	slog.Debug("Model ready", "name", s.ModelName(), "duration", time.Since(start))
	return s, nil
}

func (c *CLI) resolveModel(model string) (*wordseg.Segmenter, error) {
	if model != "" {
		if _, err := os.Stat(model); err == nil {
			slog.Debug("Loading custom model", "path", model)
			return wordseg.Load(model)
		}
		store := storage.NewStorage(c.cfg.GetString("data-folder"))
		slog.Debug("Loading model from data folder", "name", model, "folder", store.Folder)
		m, err := store.LoadModel(model)
		if err != nil {
			return nil, err
		}
		return wordseg.FromModel(m)
	}
	return loadOrDownloadModel()
}

func loadOrDownloadModel() (*wordseg.Segmenter, error) {
	s, err := wordseg.New()
	if err == nil {
		return s, nil
	}

	dest := cachedModelPath()
	slog.Info("Model not found, downloading", "url", modelURL, "dest", dest)
	m, err := fetchModel(modelURL, dest)
	if err != nil {
		return nil, err
	}
	return wordseg.FromModel(m)
}

func cachedModelPath() string {
	return filepath.Join(wordseg.ModelDir(), "model.json")
}

// fetchModel downloads weights from url and installs them at dest only if
// they parse and pass shape validation. An existing dest is left untouched
// on failure.
func fetchModel(url, dest string) (*lstm.Model, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download model: HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".model-*.json")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}

	m, err := lstm.LoadModel(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("downloaded model is invalid: %w", err)
	}
	if _, err := lstm.GranularityOf(m.Name); err != nil {
		return nil, fmt.Errorf("downloaded model is invalid: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("install model: %w", err)
	}

	slog.Info("Model installed", "name", m.Name, "path", dest,
		"size", fmt.Sprintf("%.1fMB", float64(written)/1024/1024))
	return m, nil
}
