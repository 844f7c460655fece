package standardize

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"embedding-harmonizer/cmd/harmonizer/cmd/cli"
	"embedding-harmonizer/internal/app"
	"embedding-harmonizer/internal/app/embedding/orchestrator"
	apperrors "embedding-harmonizer/internal/app/errors"
)

// maxLineBytes bounds one JSONL line; a 3072-float vector is well under it.
const maxLineBytes = 16 << 20

var (
	inputPath    string
	outputPath   string
	embed        bool
	modelKeys    []string
	batchSize    int
	concurrency  int
	showProgress bool
)

func init() {
	Cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSONL input file, - for stdin")
	Cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write one JSON result per input line to this file")
	Cmd.Flags().BoolVar(&embed, "embed", false, "embed the text of each line instead of reading vectors")
	Cmd.Flags().StringSliceVarP(&modelKeys, "models", "m", nil, "model keys to embed with (with --embed)")
	Cmd.Flags().IntVar(&batchSize, "batch-size", orchestrator.DefaultBatchSize, "chunks per batch (with --embed)")
	Cmd.Flags().IntVar(&concurrency, "concurrency", orchestrator.DefaultConcurrency, "chunks embedded at once (with --embed)")
	Cmd.Flags().BoolVar(&showProgress, "progress", false, "force the progress bar when output is not a terminal")
}

// Cmd represents the standardize command
var Cmd = &cobra.Command{
	Use:   "standardize",
	Short: "Standardize vectors from a JSONL file and store them in the sink",
	Long: `Standardize vectors from a JSONL file and store them in the configured sink

Each line is {"model_key", "vector", "source_id", "chunk_index", "text", "attributes"}.
- Without --embed, "vector" is validated against the registry, padded or truncated, then stored
- With --embed, "text" is embedded with every --models key first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if embed && len(modelKeys) == 0 {
			return apperrors.RequiredField("--models")
		}

		ctx, cancel := cli.SignalContext(cmd.Context())
		defer cancel()

		lines, err := readInput(cmd.InOrStdin(), inputPath)
		if err != nil {
			return err
		}

		ing, cleanup, err := app.InitializeIngestion(ctx, cli.ConfigPath(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		pm := cli.NewProgressManager(cli.ProgressConfig{Enabled: cli.ShouldShowProgress(showProgress)})
		out := cmd.OutOrStdout()

		if embed {
			bar := pm.CreateBar(len(lines), "Embedding", "chunks")
			proc := orchestrator.NewBatchProcessor(ing.Orchestrator, batchSize, concurrency, ing.Logger)
			proc.OnProgress(func(done, total int) { bar.SetCurrent(done) })

			result, err := proc.ProcessChunks(ctx, chunksOf(lines), modelKeys)
			bar.Complete()
			pm.Wait()
			if result != nil {
				PrintBatchResult(out, result)
			}
			return err
		}

		var results io.Writer
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			defer f.Close()
			results = f
		}

		bar := pm.CreateBar(len(lines), "Standardizing", "vectors")
		summary, err := IngestVectors(ctx, ing.Orchestrator, lines, results, bar.Increment)
		bar.Complete()
		pm.Wait()
		PrintSummary(out, summary)
		return err
	},
}

// Line is one JSONL input record.
type Line struct {
	ModelKey   string            `json:"model_key"`
	Vector     []float32         `json:"vector,omitempty"`
	SourceID   string            `json:"source_id"`
	ChunkIndex int               `json:"chunk_index"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (l Line) chunk() orchestrator.Chunk {
	return orchestrator.Chunk{
		SourceID:   l.SourceID,
		ChunkIndex: l.ChunkIndex,
		Text:       l.Text,
		Attributes: l.Attributes,
	}
}

func chunksOf(lines []Line) []orchestrator.Chunk {
	chunks := make([]orchestrator.Chunk, len(lines))
	for i, l := range lines {
		chunks[i] = l.chunk()
	}
	return chunks
}

func readInput(stdin io.Reader, path string) ([]Line, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return ParseLines(r)
}

// ParseLines decodes JSONL, skipping blank lines. Errors name the line.
func ParseLines(r io.Reader) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []Line
	n := 0
	for scanner.Scan() {
		n++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var l Line
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, apperrors.InvalidField(fmt.Sprintf("line %d", n), err.Error())
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(err, "read input")
	}
	return lines, nil
}

// Ingester standardizes and stores one precomputed vector.
type Ingester interface {
	Ingest(ctx context.Context, raw []float32, modelKey string, chunk orchestrator.Chunk) orchestrator.ModelResult
}

// Summary counts the outcomes of IngestVectors.
type Summary struct {
	Lines        int
	Stored       int
	Failed       int
	ByAction     map[string]int
	ByValidation map[string]int
	Errors       map[string]int
}

type resultLine struct {
	SourceID   string `json:"source_id"`
	ChunkIndex int    `json:"chunk_index"`
	orchestrator.ModelResult
	Error string `json:"error,omitempty"`
}

// IngestVectors stores every line through ing. A failing line is counted
// and the run continues; only a cancelled ctx stops it early. results, when
// not nil, receives one JSON object per line.
func IngestVectors(ctx context.Context, ing Ingester, lines []Line, results io.Writer, progress func()) (*Summary, error) {
	summary := &Summary{
		ByAction:     make(map[string]int),
		ByValidation: make(map[string]int),
		Errors:       make(map[string]int),
	}
	var enc *json.Encoder
	if results != nil {
		enc = json.NewEncoder(results)
	}

	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res := ing.Ingest(ctx, l.Vector, l.ModelKey, l.chunk())
		summary.Lines++
		if res.Err != nil {
			summary.Failed++
			summary.Errors[errorClass(res.Err)]++
		} else {
			summary.Stored++
			summary.ByAction[string(res.Action)]++
			summary.ByValidation[string(res.Validation)]++
		}

		if enc != nil {
			out := resultLine{SourceID: l.SourceID, ChunkIndex: l.ChunkIndex, ModelResult: res}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}
			if err := enc.Encode(out); err != nil {
				return summary, apperrors.Wrap(err, "write result")
			}
		}
		if progress != nil {
			progress()
		}
	}
	return summary, nil
}

func errorClass(err error) string {
	switch {
	case apperrors.IsSoft(err):
		return "soft"
	case errors.Is(err, apperrors.ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, apperrors.ErrEmptyVector):
		return "empty_vector"
	default:
		return "other"
	}
}

// PrintSummary renders the outcome of a vector run.
func PrintSummary(w io.Writer, s *Summary) {
	cli.Heading(w, "Standardization")
	fmt.Fprintf(w, "%d lines: %s stored, %s failed\n", s.Lines, cli.OK(fmt.Sprint(s.Stored)), failed(s.Failed))
	printCounts(w, "action", s.ByAction)
	printCounts(w, "validation", s.ByValidation)
	printCounts(w, "error", s.Errors)
}

// PrintBatchResult renders the outcome of an embedding run.
func PrintBatchResult(w io.Writer, r *orchestrator.BatchResult) {
	cli.Heading(w, "Embedding")
	fmt.Fprintf(w, "%d chunks in %s: %s stored, %s failed\n",
		r.Chunks, r.Duration.Round(time.Millisecond), cli.OK(fmt.Sprint(r.Stored)), failed(r.Failed))
	if r.Stopped {
		fmt.Fprintln(w, cli.Warn("stopped before the last batch"))
	}
	printCounts(w, "model", r.PerModel)
	if r.LastError != nil {
		fmt.Fprintf(w, "last error: %v\n", r.LastError)
	}
}

func failed(n int) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return cli.Fail(fmt.Sprint(n))
}

func printCounts(w io.Writer, label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s %-20s %d\n", cli.Muted(label), k, counts[k])
	}
}
