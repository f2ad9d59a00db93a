package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/happyhackingspace/wordseg"
	"github.com/happyhackingspace/wordseg/internal/htmlutil"
	"github.com/happyhackingspace/wordseg/internal/textutil"
	"github.com/spf13/cobra"
)

func (c *CLI) newSegmentCommand() *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "segment [text-file-or-url]",
		Short: "Segment text from an argument, file, URL, or stdin",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Segment a literal string
  wordseg segment "ภาษาไทยง่ายนิดเดียว"

  # Segment a local text file line by line
  wordseg segment article.txt

  # Segment the visible text of a web page
  wordseg segment https://www.thairath.co.th

  # Pipe text from stdin
  echo "ภาษาไทยง่ายนิดเดียว" | wordseg segment

  # Print BIES tags instead of words
  wordseg segment "ภาษาไทย" --format tags

  # JSON output with tags and words, 8 workers
  wordseg segment article.txt --format json --workers 8

  # Use a model from the data folder by name
  wordseg segment article.txt --model Thai_codepoints_exclusive_model4_heavy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var lines []string
			var err error
			if len(args) == 0 {
				if isStdinTerminal() {
					return cmd.Help()
				}
				lines, err = readStdinLines(asHTML)
			} else {
				lines, err = readLines(args[0], asHTML)
			}
			if err != nil {
				return err
			}
			slog.Debug("Input read", "lines", len(lines))

			if c.cfg.GetBool("nfc") {
				for i := range lines {
					lines[i] = textutil.NFC(lines[i])
				}
			}

			s, err := c.loadSegmenter()
			if err != nil {
				return err
			}

			start := time.Now()
			out, err := segmentLines(cmd.Context(), s, lines, c.cfg.GetInt("workers"), c.cfg.GetBool("split-spaces"))
			if err != nil {
				return err
			}
			slog.Debug("Segmentation completed", "lines", len(lines), "duration", time.Since(start))

			return writeResults(cmd.OutOrStdout(), out, c.cfg.GetString("format"), c.cfg.GetString("separator"))
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Treat input as HTML and segment its visible text")
	cmd.Flags().Bool("nfc", false, "Normalize input to NFC before segmenting")
	cmd.Flags().String("format", "words", "Output format: words, tags or json")
	cmd.Flags().String("separator", "|", "Word separator for --format words")
	cmd.Flags().Int("workers", 4, "Number of lines segmented concurrently")
	cmd.Flags().Bool("split-spaces", true, "Segment whitespace-separated chunks independently")
	for _, name := range []string{"nfc", "format", "separator", "workers", "split-spaces"} {
		_ = c.cfg.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

// lineResult is the segmentation of one input line, possibly made of
// several whitespace-separated chunks.
type lineResult struct {
	Text   string   `json:"text"`
	Tags   string   `json:"tags"`
	Words  []string `json:"words"`
	chunks int
}

func segmentLines(ctx context.Context, s *wordseg.Segmenter, lines []string, workers int, splitSpaces bool) ([]lineResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var items []string
	owner := make([]int, 0, len(lines))
	for i, line := range lines {
		chunks := []string{line}
		if splitSpaces {
			chunks = textutil.Chunks(line)
		}
		for _, ch := range chunks {
			items = append(items, ch)
			owner = append(owner, i)
		}
	}

	results, err := s.SegmentLines(ctx, items, workers)
	if err != nil {
		return nil, err
	}

	out := make([]lineResult, len(lines))
	for i := range out {
		out[i].Text = lines[i]
	}
	for i, r := range results {
		lr := &out[owner[i]]
		if lr.chunks > 0 {
			lr.Tags += " "
		}
		lr.Tags += r.Tags
		lr.Words = append(lr.Words, r.Words...)
		lr.chunks++
	}
	return out, nil
}

func writeResults(w io.Writer, results []lineResult, format, sep string) error {
	switch format {
	case "words":
		for _, r := range results {
			fmt.Fprintln(w, strings.Join(r.Words, sep))
		}
	case "tags":
		for _, r := range results {
			fmt.Fprintln(w, r.Tags)
		}
	case "json":
		output, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(output))
	default:
		return fmt.Errorf("unknown format %q (want words, tags or json)", format)
	}
	return nil
}

func inputLines(content string, asHTML bool) ([]string, error) {
	if !asHTML {
		return textutil.Lines(content), nil
	}
	doc, err := htmlutil.LoadHTMLString(content)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return pageLines(doc, "input"), nil
}

func pageLines(doc *goquery.Document, source string) []string {
	slog.Debug("HTML loaded", "source", source, "title", htmlutil.Title(doc), "lang", htmlutil.Lang(doc))
	return htmlutil.VisibleText(doc)
}

// fetchLines downloads a page and returns its visible text.
func fetchLines(url string) ([]string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch URL: HTTP %d", resp.StatusCode)
	}
	doc, err := htmlutil.LoadHTML(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return pageLines(doc, url), nil
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func looksLikeHTML(target string) bool {
	lower := strings.ToLower(target)
	return isURL(target) || strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// readLines fetches a URL, reads a file, or segments the argument itself.
func readLines(target string, asHTML bool) ([]string, error) {
	if isURL(target) {
		return fetchLines(target)
	}
	if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
		data, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return inputLines(string(data), asHTML || looksLikeHTML(target))
	}
	return inputLines(target, asHTML)
}

func readStdinLines(asHTML bool) ([]string, error) {
	slog.Debug("Reading from stdin")
	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	content := strings.TrimSpace(string(body))
	if content == "" {
		return nil, fmt.Errorf("stdin is empty")
	}
	if isURL(content) {
		slog.Debug("Stdin contains URL", "url", content)
		return fetchLines(content)
	}
	return inputLines(content, asHTML)
}
