package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/happyhackingspace/wordseg"
	"github.com/happyhackingspace/wordseg/internal/storage"
	"github.com/happyhackingspace/wordseg/lstm"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var keepDuplicates bool

	cmd := &cobra.Command{
		Use:   "evaluate [fixture]",
		Short: "Compare predicted BIES tags against a gold fixture",
		Args:  cobra.MaximumNArgs(1),
		Example: `  wordseg evaluate --model Thai_graphclust_exclusive_model4_heavy
  wordseg evaluate data/test_text_codepoints.json --model model.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSegmenter()
			if err != nil {
				return err
			}

			fixture := ""
			if len(args) > 0 {
				fixture = args[0]
			} else {
				info, err := s.Info()
				if err != nil {
					return err
				}
				g, _ := lstm.GranularityOf(info.Name)
				fixture = storage.NewStorage(c.cfg.GetString("data-folder")).TestTextPath(g)
			}

			slog.Info("Evaluating", "model", s.ModelName(), "fixture", fixture)
			start := time.Now()
			result, err := s.Evaluate(fixture, &wordseg.EvalConfig{
				KeepDuplicates: keepDuplicates,
			})
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			printEvalResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepDuplicates, "keep-duplicates", false, "Keep repeated test lines")
	return cmd
}

func printEvalResult(w io.Writer, result *wordseg.EvalResult) {
	fmt.Fprintf(w, "Tag accuracy: %.1f%% (%d/%d tokens)\n",
		result.TagAccuracy*100, result.TagCorrect, result.TagTotal)
	fmt.Fprintf(w, "Sequence accuracy: %.1f%% (%d/%d lines)\n",
		result.SequenceAccuracy*100, result.SequenceCorrect, result.SequenceTotal)
	fmt.Fprintf(w, "Word boundaries: precision %.1f%%  recall %.1f%%  F1 %.1f%%\n",
		result.BoundaryPrecision*100, result.BoundaryRecall*100, result.BoundaryF1*100)
	if result.TagTotal > 0 {
		fmt.Fprintf(w, "Out-of-vocabulary tokens: %d (%.1f%%)\n",
			result.OOVTokens, float64(result.OOVTokens)/float64(result.TagTotal)*100)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d lines whose gold tags do not match the model's tokenization\n", result.Skipped)
	}
	printConfusionMatrix(w, result.Confusion, wordseg.Tags)
	printClassReport(w, result.Confusion, wordseg.Tags, result.Precision, result.Recall, result.F1)
}

func printClassReport(w io.Writer, confusion map[string]map[string]int, classes []string, precision, recall, f1 map[string]float64) {
	fmt.Fprintf(w, "\nPer-tag metrics:\n")
	fmt.Fprintf(w, "%8s  %6s  %6s  %6s  %7s\n", "tag", "prec", "recall", "f1", "support")
	for _, cls := range classes {
		support := 0
		for _, v := range confusion[cls] {
			support += v
		}
		fmt.Fprintf(w, "%8s  %5.1f%%  %5.1f%%  %5.1f%%  %7d\n",
			cls, precision[cls]*100, recall[cls]*100, f1[cls]*100, support)
	}
}

func printConfusionMatrix(w io.Writer, confusion map[string]map[string]int, classes []string) {
	if len(confusion) == 0 {
		return
	}

	fmt.Fprintf(w, "\nConfusion matrix (rows=gold, cols=predicted):\n")
	fmt.Fprintf(w, "%8s", "")
	for _, c := range classes {
		fmt.Fprintf(w, " %5s", c)
	}
	fmt.Fprintf(w, "  total  acc%%\n")

	for _, goldTag := range classes {
		fmt.Fprintf(w, "%8s", goldTag)
		total := 0
		correct := 0
		for _, predTag := range classes {
			count := confusion[goldTag][predTag]
			total += count
			if goldTag == predTag {
				correct = count
			}
			if count == 0 {
				fmt.Fprintf(w, " %5s", ".")
			} else {
				fmt.Fprintf(w, " %5d", count)
			}
		}
		acc := 0.0
		if total > 0 {
			acc = float64(correct) / float64(total) * 100
		}
		fmt.Fprintf(w, "  %5d %5.1f\n", total, acc)
	}
}
