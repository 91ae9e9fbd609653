package loader

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/RyanBlaney/sonido-loader/logging"
)

// DefaultReadConcurrency bounds parallel file reads within one block fetch
const DefaultReadConcurrency = 8

// Hooks observe block fetches. Both callbacks run on the goroutine doing
// the fetch.
type Hooks struct {
	OnFetchStart func(blockNum int)
	OnFetchDone  func(blockNum int)
}

// Option configures a BlockLoaderFile
type Option func(*BlockLoaderFile)

// WithSubsetSeed seeds the subset selection
func WithSubsetSeed(seed uint64) Option {
	return func(l *BlockLoaderFile) { l.subsetSeed = seed }
}

// WithReadConcurrency bounds how many files of one block are read at once
func WithReadConcurrency(n int) Option {
	return func(l *BlockLoaderFile) { l.readConcurrency = n }
}

// WithHooks installs fetch instrumentation
func WithHooks(h Hooks) Option {
	return func(l *BlockLoaderFile) { l.hooks = h }
}

// WithLogger replaces the package logger
func WithLogger(logger logging.Logger) Option {
	return func(l *BlockLoaderFile) { l.logger = logger }
}

// blockBuffer is a fetched block laid out like BufferArray: [element][record]
type blockBuffer [][]Record

// BlockLoaderFile delivers blocks of whole-file buffers from a manifest,
// reading block n+1 in the background while block n is consumed. At most one
// prefetch is outstanding; LoadBlock is meant for a single consumer.
type BlockLoaderFile struct {
	fs              afero.Fs
	manifest        Manifest
	blockSize       int
	indices         []int
	subsetSeed      uint64
	readConcurrency int
	hooks           Hooks
	logger          logging.Logger

	mu           sync.Mutex
	pending      chan blockBuffer
	pendingBlock int
	inFlight     atomic.Int32
}

// NewBlockLoaderFile creates a loader over manifest. subsetFraction in (0, 1]
// selects a deterministic share of the records.
func NewBlockLoaderFile(fs afero.Fs, manifest Manifest, subsetFraction float64, blockSize int, opts ...Option) (*BlockLoaderFile, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidConfig, blockSize)
	}
	if manifest == nil {
		return nil, fmt.Errorf("%w: manifest is required", ErrInvalidConfig)
	}

	l := &BlockLoaderFile{
		fs:              fs,
		manifest:        manifest,
		blockSize:       blockSize,
		readConcurrency: DefaultReadConcurrency,
		logger: logging.WithFields(logging.Fields{
			"component": "block_loader",
		}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.readConcurrency <= 0 {
		return nil, fmt.Errorf("%w: read concurrency must be positive, got %d", ErrInvalidConfig, l.readConcurrency)
	}

	if err := l.generateSubset(subsetFraction); err != nil {
		return nil, err
	}

	l.logger.Debug("Block loader ready", logging.Fields{
		"objects":    l.ObjectCount(),
		"block_size": blockSize,
		"blocks":     l.BlockCount(),
	})

	return l, nil
}

func (l *BlockLoaderFile) generateSubset(fraction float64) error {
	indices, err := generateSubset(l.manifest.Len(), fraction, l.subsetSeed)
	if err != nil {
		return err
	}
	l.indices = indices
	return nil
}

// ObjectCount returns the number of records in the active (possibly subset) manifest
func (l *BlockLoaderFile) ObjectCount() int {
	return len(l.indices)
}

// BlockCount returns ceil(ObjectCount / blockSize)
func (l *BlockLoaderFile) BlockCount() int {
	return (l.ObjectCount() + l.blockSize - 1) / l.blockSize
}

// BlockSize returns the configured number of records per block
func (l *BlockLoaderFile) BlockSize() int {
	return l.blockSize
}

// ElementsPerRecord returns how many BufferIn a destination needs
func (l *BlockLoaderFile) ElementsPerRecord() int {
	return l.manifest.ElementsPerRecord()
}

// InFlight returns the number of block fetches currently running
func (l *BlockLoaderFile) InFlight() int {
	return int(l.inFlight.Load())
}

// LoadBlock fills dest with block blockNum, one BufferIn per manifest element.
// It waits for the prefetch of blockNum if one was issued, otherwise it
// drains any outstanding prefetch and reads the block directly. Before
// returning it starts the prefetch of the following block.
func (l *BlockLoaderFile) LoadBlock(dest BufferArray, blockNum int) error {
	if len(dest) != l.ElementsPerRecord() {
		return fmt.Errorf("%w: got %d buffers, manifest has %d elements", ErrDestination, len(dest), l.ElementsPerRecord())
	}
	if blockNum < 0 || blockNum >= l.BlockCount() {
		return fmt.Errorf("%w: %d of %d", ErrBlockOutOfRange, blockNum, l.BlockCount())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var fetched blockBuffer
	if l.pending != nil && l.pendingBlock == blockNum {
		fetched = <-l.pending
		l.pending = nil
	} else {
		l.drain()
		fetched = l.fetchBlock(blockNum)
	}

	l.prefetchBlock((blockNum + 1) % l.BlockCount())

	for e, buf := range dest {
		buf.records = fetched[e]
	}

	return nil
}

// Close waits for the outstanding prefetch, if any
func (l *BlockLoaderFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.drain()
	return nil
}

// drain discards the outstanding prefetch after it finishes. Callers hold mu.
func (l *BlockLoaderFile) drain() {
	if l.pending == nil {
		return
	}
	<-l.pending
	l.pending = nil
}

// prefetchBlock starts reading blockNum on a new goroutine. Callers hold mu
// and have already consumed or drained the previous prefetch.
func (l *BlockLoaderFile) prefetchBlock(blockNum int) {
	done := make(chan blockBuffer, 1)
	l.pending = done
	l.pendingBlock = blockNum

	go func() {
		done <- l.fetchBlock(blockNum)
	}()
}

// ManifestIndex returns the manifest row of record slot in block blockNum.
// With a subset the rows are sparse but stay in manifest order.
func (l *BlockLoaderFile) ManifestIndex(blockNum, slot int) (int, error) {
	start, end := l.blockRange(blockNum)
	if blockNum < 0 || blockNum >= l.BlockCount() || slot < 0 || start+slot >= end {
		return 0, fmt.Errorf("%w: block %d slot %d", ErrBlockOutOfRange, blockNum, slot)
	}
	return l.indices[start+slot], nil
}

// blockRange returns the [start, end) slice of active records in blockNum
func (l *BlockLoaderFile) blockRange(blockNum int) (int, int) {
	start := blockNum * l.blockSize
	end := min(start+l.blockSize, l.ObjectCount())
	return start, end
}

// fetchBlock reads every file of the block. A failed read is stored in that
// record's slot and never stops the other reads.
func (l *BlockLoaderFile) fetchBlock(blockNum int) blockBuffer {
	l.inFlight.Add(1)
	defer l.inFlight.Add(-1)

	if l.hooks.OnFetchStart != nil {
		l.hooks.OnFetchStart(blockNum)
	}
	if l.hooks.OnFetchDone != nil {
		defer l.hooks.OnFetchDone(blockNum)
	}

	start, end := l.blockRange(blockNum)
	elements := l.ElementsPerRecord()

	buf := make(blockBuffer, elements)
	for e := range buf {
		buf[e] = make([]Record, end-start)
	}

	p := pool.New().WithMaxGoroutines(l.readConcurrency)
	for slot := 0; slot < end-start; slot++ {
		index := l.indices[start+slot]
		paths := l.manifest.Record(index)

		p.Go(func() {
			for e := 0; e < elements; e++ {
				if e >= len(paths) {
					buf[e][slot] = Record{Err: &RecordError{
						Index: index, Element: e,
						Err: fmt.Errorf("%w: record has %d elements", ErrMalformedManifest, len(paths)),
					}}
					continue
				}

				data, err := l.LoadFile(paths[e])
				if err != nil {
					err = &RecordError{Index: index, Element: e, Path: paths[e], Err: err}
					l.logger.Warn("Failed to read record", logging.Fields{
						"block":  blockNum,
						"record": index,
						"path":   paths[e],
						"error":  err.Error(),
					})
				}
				buf[e][slot] = Record{Data: data, Err: err}
			}
		})
	}
	p.Wait()

	l.logger.Debug("Fetched block", logging.Fields{
		"block":   blockNum,
		"records": end - start,
	})

	return buf
}

// LoadFile reads the whole file at name
func (l *BlockLoaderFile) LoadFile(name string) ([]byte, error) {
	data, err := afero.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
