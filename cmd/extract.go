package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-loader/configs"
	"github.com/RyanBlaney/sonido-loader/etl"
	"github.com/RyanBlaney/sonido-loader/etl/audio"
	"github.com/RyanBlaney/sonido-loader/etl/boundingbox"
	"github.com/RyanBlaney/sonido-loader/etl/image"
	"github.com/RyanBlaney/sonido-loader/loader"
	"github.com/RyanBlaney/sonido-loader/logging"
	"github.com/RyanBlaney/sonido-loader/specgram"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run every manifest record through the configured pipeline",
	Long: `Loads the manifest block by block and writes the output buffers of every
record to <output_dir>/<row>_<buffer>.bin, where <row> is the record's
zero-based row in the manifest (comment lines not counted).

For audio the first element of each record is the WAV file. For bounding
boxes the last element is the JSON annotation.

Examples:
  sonido-loader extract --manifest train.csv --media audio
  sonido-loader --config loader.yaml extract --block-size 128`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("manifest", "", "CSV manifest listing the files of each record")
	extractCmd.Flags().String("media", "", "media type (audio, boundingbox)")
	extractCmd.Flags().String("output-dir", "", "directory receiving the output buffers")
	extractCmd.Flags().Int("block-size", 0, "records per block")
	extractCmd.Flags().Float64("subset-fraction", 0, "fraction of the manifest to use, in (0, 1]")

	flagKey(extractCmd, "manifest", "loader.manifest")
	flagKey(extractCmd, "block-size", "loader.block_size")
	flagKey(extractCmd, "subset-fraction", "loader.subset_fraction")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := configs.LoadConfig(v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Error(err, "Invalid configuration")
		return err
	}

	summary, err := extract(appFs, cfg)
	if err != nil {
		return err
	}

	summary.print(cmd.OutOrStdout())
	return nil
}

// extractSummary counts the records of one run
type extractSummary struct {
	Blocks    int
	Processed int
	Failed    int
}

func (s *extractSummary) print(w io.Writer) {
	fmt.Fprintf(w, "blocks: %d\nprocessed: %d\nfailed: %d\n", s.Blocks, s.Processed, s.Failed)
}

// extract runs the whole manifest named by cfg through the media pipeline
func extract(fs afero.Fs, cfg *configs.Config) (*extractSummary, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "extract",
		"media":     cfg.Media,
	})

	manifest, err := loader.LoadCSVManifest(fs, cfg.Loader.Manifest)
	if err != nil {
		return nil, err
	}

	bl, err := loader.NewBlockLoaderFile(fs, manifest, cfg.Loader.SubsetFraction, cfg.Loader.BlockSize, cfg.LoaderOptions()...)
	if err != nil {
		return nil, err
	}
	defer bl.Close()

	if err := fs.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	run := &blockRun{
		fs:        fs,
		loader:    bl,
		outputDir: cfg.OutputDir,
		logger:    logger,
	}

	switch cfg.Media {
	case configs.MediaAudio:
		sgCfg, err := cfg.SpecgramConfig()
		if err != nil {
			return nil, err
		}
		sg, err := specgram.New(sgCfg, cfg.Audio.Seed)
		if err != nil {
			return nil, err
		}
		p := audio.NewPipeline(sg)
		sizes := p.Loader.(*audio.Loader).BufferSizes()
		return runBlocks(run, 0, p, func(int) etl.NoParams { return etl.NoParams{} }, sizes)

	case configs.MediaBoundingBox:
		bbCfg, err := cfg.BoundingBoxConfig()
		if err != nil {
			return nil, err
		}
		imgCfg, err := cfg.ImageConfig()
		if err != nil {
			return nil, err
		}
		factory, err := image.NewParamFactory(imgCfg, cfg.Image.Seed)
		if err != nil {
			return nil, err
		}
		p := &etl.Pipeline[*boundingbox.Decoded, etl.NoParams]{
			Extractor:   boundingbox.NewExtractor(bbCfg),
			Transformer: &augmentingTransformer{factory: factory, next: boundingbox.NewTransformer()},
			Loader:      boundingbox.NewLoader(bbCfg),
		}
		elem := bl.ElementsPerRecord() - 1
		return runBlocks(run, elem, p, func(int) etl.NoParams { return etl.NoParams{} }, bbCfg.BufferSizes())

	default:
		return nil, fmt.Errorf("unknown media %q", cfg.Media)
	}
}

// augmentingTransformer samples crop and flip parameters from the size the
// annotation declares, then maps the boxes through them
type augmentingTransformer struct {
	factory *image.ParamFactory
	next    *boundingbox.Transformer
}

func (a *augmentingTransformer) Transform(_ etl.NoParams, d *boundingbox.Decoded) (*boundingbox.Decoded, error) {
	if d.Width <= 0 || d.Height <= 0 {
		return nil, fmt.Errorf("annotation has no image size")
	}
	return a.next.Transform(a.factory.Make(d.Width, d.Height), d)
}

type blockRun struct {
	fs        afero.Fs
	loader    *loader.BlockLoaderFile
	outputDir string
	logger    logging.Logger
}

func runBlocks[D, P any](r *blockRun, elem int, p *etl.Pipeline[D, P], paramsFn func(int) P, sizes []int) (*extractSummary, error) {
	dest := loader.NewBufferArray(r.loader.ElementsPerRecord())
	summary := &extractSummary{}

	for block := range r.loader.BlockCount() {
		if err := r.loader.LoadBlock(dest, block); err != nil {
			return nil, err
		}

		buf := dest[elem]
		dsts := make([][][]byte, buf.Len())
		for i := range dsts {
			dsts[i] = etl.AllocBuffers(sizes)
		}

		errs := p.ProcessBlock(buf, paramsFn, func(i int) [][]byte { return dsts[i] })

		for i, err := range errs {
			record, idxErr := r.loader.ManifestIndex(block, i)
			if idxErr != nil {
				return nil, idxErr
			}
			if err != nil {
				summary.Failed++
				r.logger.Warn("Record failed", logging.Fields{
					"block":  block,
					"record": record,
					"error":  err.Error(),
				})
				continue
			}
			if err := r.write(record, dsts[i]); err != nil {
				return nil, err
			}
			summary.Processed++
		}
		summary.Blocks++

		r.logger.Debug("Processed block", logging.Fields{
			"block":   block,
			"records": buf.Len(),
		})
	}

	r.logger.Info("Extraction complete", logging.Fields{
		"blocks":    summary.Blocks,
		"processed": summary.Processed,
		"failed":    summary.Failed,
	})

	return summary, nil
}

func (r *blockRun) write(record int, buffers [][]byte) error {
	for k, b := range buffers {
		name := filepath.Join(r.outputDir, fmt.Sprintf("%06d_%d.bin", record, k))
		if err := afero.WriteFile(r.fs, name, b, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
