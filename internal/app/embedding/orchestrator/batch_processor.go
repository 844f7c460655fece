package orchestrator

import (
	"context"
	"sync"
	"time"

	"embedding-harmonizer/internal/app/logging"
)

// DefaultBatchSize and DefaultConcurrency apply when zero values are given.
const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 5
)

// ChunkProcessor processes one chunk against a set of models
type ChunkProcessor interface {
	ProcessChunk(ctx context.Context, chunk Chunk, modelKeys []string) (*ChunkResult, error)
}

// BatchProcessor runs chunks through a ChunkProcessor in batches, with
// pause, resume and stop controls.
type BatchProcessor struct {
	processor ChunkProcessor
	logger    logging.Logger

	batchSize   int
	concurrency int
	onProgress  func(done, total int)

	// State management
	isProcessing bool
	isPaused     bool
	currentBatch int
	totalBatches int
	startTime    time.Time

	// Control channels
	stopChan   chan struct{}
	pauseChan  chan struct{}
	resumeChan chan struct{}

	mu sync.RWMutex
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Chunks    int
	Stored    int
	Failed    int
	Stopped   bool
	Errors    []error
	PerModel  map[string]int
	Duration  time.Duration
	LastError error
}

// ProcessingStatus represents the current status of batch processing
type ProcessingStatus struct {
	IsProcessing bool
	IsPaused     bool
	CurrentBatch int
	TotalBatches int
	Progress     float64
	StartTime    time.Time
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor ChunkProcessor, batchSize, concurrency int, logger logging.Logger) *BatchProcessor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &BatchProcessor{
		processor:   processor,
		logger:      logging.OrNop(logger),
		batchSize:   batchSize,
		concurrency: concurrency,
		stopChan:    make(chan struct{}, 1),
		pauseChan:   make(chan struct{}, 1),
		resumeChan:  make(chan struct{}, 1),
	}
}

// OnProgress registers a callback invoked after every chunk.
func (p *BatchProcessor) OnProgress(fn func(done, total int)) {
	p.onProgress = fn
}

// ProcessChunks embeds every chunk with every model. A chunk failing for
// some models does not stop the run.
func (p *BatchProcessor) ProcessChunks(ctx context.Context, chunks []Chunk, modelKeys []string) (*BatchResult, error) {
	p.mu.Lock()
	p.isProcessing = true
	p.isPaused = false
	p.currentBatch = 0
	p.totalBatches = (len(chunks) + p.batchSize - 1) / p.batchSize
	p.startTime = time.Now()
	for _, ch := range []chan struct{}{p.stopChan, p.pauseChan, p.resumeChan} {
		drain(ch)
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.isProcessing = false
		p.isPaused = false
		p.mu.Unlock()
	}()

	result := &BatchResult{PerModel: make(map[string]int)}
	start := time.Now()
	done := 0

	for i := 0; i < len(chunks); i += p.batchSize {
		select {
		case <-p.stopChan:
			result.Stopped = true
			result.Duration = time.Since(start)
			return result, nil
		case <-ctx.Done():
			result.Duration = time.Since(start)
			return result, ctx.Err()
		default:
		}

		// Block while paused
		select {
		case <-p.pauseChan:
			select {
			case <-p.resumeChan:
			case <-p.stopChan:
				result.Stopped = true
				result.Duration = time.Since(start)
				return result, nil
			case <-ctx.Done():
				result.Duration = time.Since(start)
				return result, ctx.Err()
			}
		default:
		}

		end := min(i+p.batchSize, len(chunks))
		batch := chunks[i:end]

		p.mu.Lock()
		p.currentBatch = i/p.batchSize + 1
		p.mu.Unlock()

		var wg sync.WaitGroup
		var mu sync.Mutex
		sem := make(chan struct{}, p.concurrency)

		for _, c := range batch {
			wg.Add(1)
			sem <- struct{}{}
			go func(chunk Chunk) {
				defer wg.Done()
				defer func() { <-sem }()

				res, err := p.processor.ProcessChunk(ctx, chunk, modelKeys)

				mu.Lock()
				defer mu.Unlock()
				result.Chunks++
				if res != nil {
					for _, m := range res.Results {
						if m.Err != nil {
							result.Failed++
							result.Errors = append(result.Errors, m.Err)
							result.LastError = m.Err
							continue
						}
						result.Stored++
						result.PerModel[m.ModelKey]++
					}
				} else if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, err)
					result.LastError = err
				}
				done++
				if p.onProgress != nil {
					p.onProgress(done, len(chunks))
				}
			}(c)
		}
		wg.Wait()

		p.logger.Infow("Batch processing progress",
			"progress", float64(end)/float64(len(chunks))*100,
			"stored", result.Stored,
			"failed", result.Failed)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// GetProcessingStatus returns the current processing status
func (p *BatchProcessor) GetProcessingStatus() ProcessingStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	progress := float64(0)
	if p.totalBatches > 0 {
		progress = float64(p.currentBatch) / float64(p.totalBatches) * 100
	}

	return ProcessingStatus{
		IsProcessing: p.isProcessing,
		IsPaused:     p.isPaused,
		CurrentBatch: p.currentBatch,
		TotalBatches: p.totalBatches,
		Progress:     progress,
		StartTime:    p.startTime,
	}
}

// PauseProcessing pauses before the next batch
func (p *BatchProcessor) PauseProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isProcessing && !p.isPaused {
		p.isPaused = true
		select {
		case p.pauseChan <- struct{}{}:
		default:
		}
	}
}

// ResumeProcessing resumes paused processing
func (p *BatchProcessor) ResumeProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isProcessing && p.isPaused {
		p.isPaused = false
		select {
		case p.resumeChan <- struct{}{}:
		default:
		}
	}
}

// StopProcessing stops before the next batch
func (p *BatchProcessor) StopProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isProcessing {
		select {
		case p.stopChan <- struct{}{}:
		default:
		}
	}
}

func drain(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
