package cli

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/happyhackingspace/wordseg/internal/storage"
	"github.com/happyhackingspace/wordseg/lstm"
	"github.com/spf13/cobra"
)

const (
	hfRepo      = "happyhackingspace/wordseg"
	hfDataURL   = "https://huggingface.co/datasets/" + hfRepo + "/resolve/main/data.tar.gz"
	archiveRoot = "data"
)

func (c *CLI) newDataCommand() *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Manage model weights and test fixtures (download/upload via Hugging Face)",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download model weights and test fixtures from Hugging Face",
		Example: `  wordseg data download
  wordseg data download --data-folder data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dataDownload(c.cfg.GetString("data-folder"))
		},
	}

	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload model weights and test fixtures to Hugging Face",
		Example: `  wordseg data upload
  wordseg data upload --data-folder data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dataUpload(c.cfg.GetString("data-folder"))
		},
	}

	dataCmd.AddCommand(downloadCmd, uploadCmd)
	return dataCmd
}

// dataFolderReport lists what a data folder holds after validation.
type dataFolderReport struct {
	Models   []string
	Fixtures []string
}

// verifyDataFolder loads every <model>/weights.json, which runs shape
// validation, and checks that each model names a known tokenization.
func verifyDataFolder(folder string) (*dataFolderReport, error) {
	store := storage.NewStorage(folder)
	names, err := store.ListModels()
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no <model>/%s found in %s", storage.WeightsFile, folder)
	}

	report := &dataFolderReport{}
	seen := make(map[lstm.Granularity]bool)
	for _, name := range names {
		m, err := store.LoadModel(name)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
		g, err := lstm.GranularityOf(m.Name)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
		slog.Debug("Model verified", "dir", name, "name", m.Name, "granularity", g,
			"vocabulary", m.VocabSize(), "hidden", m.HiddenUnits())
		report.Models = append(report.Models, name)

		if seen[g] {
			continue
		}
		seen[g] = true
		fixture := store.TestTextPath(g)
		if _, err := os.Stat(fixture); err != nil {
			slog.Warn("No fixture for granularity", "granularity", g, "path", fixture)
			continue
		}
		report.Fixtures = append(report.Fixtures, fixture)
	}
	return report, nil
}

func dataDownload(dataFolder string) error {
	slog.Info("Downloading models and fixtures", "url", hfDataURL)
	resp, err := http.Get(hfDataURL)
	if err != nil {
		return fmt.Errorf("download data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download data: HTTP %d", resp.StatusCode)
	}

	if err := os.RemoveAll(dataFolder); err != nil {
		return fmt.Errorf("remove existing %s: %w", dataFolder, err)
	}
	files, err := extractArchive(resp.Body, dataFolder)
	if err != nil {
		return err
	}

	report, err := verifyDataFolder(dataFolder)
	if err != nil {
		return err
	}
	slog.Info("Data ready", "files", files, "models", len(report.Models), "fixtures", len(report.Fixtures), "folder", dataFolder)

	dest := cachedModelPath()
	slog.Info("Downloading default model", "url", modelURL, "dest", dest)
	_, err = fetchModel(modelURL, dest)
	return err
}

// extractArchive unpacks a data.tar.gz into folder. Entries are stored
// under a leading "data/" which is replaced by folder; entries that would
// land outside folder are rejected.
func extractArchive(r io.Reader, folder string) (int, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(gr)
	files := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("read archive: %w", err)
		}

		rel := strings.TrimPrefix(path.Clean(hdr.Name), archiveRoot+"/")
		if rel == archiveRoot || rel == "." {
			continue
		}
		if !filepath.IsLocal(rel) {
			return files, fmt.Errorf("archive entry %q escapes the data folder", hdr.Name)
		}
		target := filepath.Join(folder, filepath.FromSlash(rel))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return files, fmt.Errorf("extract %s: %w", rel, err)
			}
			files++
		default:
			slog.Debug("Skipping archive entry", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeArchive packs folder into w with entries under "data/", the layout
// extractArchive expects.
func writeArchive(folder string, w io.Writer) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	err := filepath.WalkDir(folder, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(folder, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = path.Join(archiveRoot, filepath.ToSlash(rel))
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		_ = tw.Close()
		_ = gw.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		_ = gw.Close()
		return err
	}
	return gw.Close()
}

func dataUpload(dataFolder string) error {
	if _, err := exec.LookPath("huggingface-cli"); err != nil {
		return fmt.Errorf("huggingface-cli not found in PATH; install with: pip install huggingface_hub")
	}

	report, err := verifyDataFolder(dataFolder)
	if err != nil {
		return fmt.Errorf("refusing to upload: %w", err)
	}
	slog.Info("Data folder verified", "models", len(report.Models), "fixtures", len(report.Fixtures))

	tarPath := "data.tar.gz"
	f, err := os.Create(tarPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", tarPath, err)
	}
	if err := writeArchive(dataFolder, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("create archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("Archive created", "path", tarPath)

	uploads := [][2]string{
		{tarPath, "data.tar.gz"},
		{dataFolder, archiveRoot + "/"},
	}
	for _, u := range uploads {
		slog.Info("Uploading", "source", u[0], "dest", u[1])
		cmd := exec.Command("huggingface-cli", "upload", hfRepo, u[0], u[1], "--repo-type", "dataset")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("upload %s: %w", u[0], err)
		}
	}

	slog.Info("Upload complete")
	return nil
}
