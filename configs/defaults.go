package configs

import (
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-loader/loader"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("output_dir", "./out")
	v.SetDefault("media", MediaAudio)

	// Block loader defaults
	v.SetDefault("loader.manifest", "manifest.csv")
	v.SetDefault("loader.block_size", 64)
	v.SetDefault("loader.subset_fraction", 1.0)
	v.SetDefault("loader.subset_seed", 0)
	v.SetDefault("loader.read_concurrency", loader.DefaultReadConcurrency)

	// Audio feature defaults: one second at 16 kHz, 25 ms windows, 10 ms stride
	v.SetDefault("audio.feature", "specgram")
	v.SetDefault("audio.clip_duration", 1000)
	v.SetDefault("audio.window_size", 400)
	v.SetDefault("audio.stride", 160)
	v.SetDefault("audio.width", 0)
	v.SetDefault("audio.height", 0)
	v.SetDefault("audio.sampling_freq", 16000)
	v.SetDefault("audio.num_filts", 64)
	v.SetDefault("audio.num_cepstra", 40)
	v.SetDefault("audio.window", "hann")
	v.SetDefault("audio.random_scale_percent", 0.0)
	v.SetDefault("audio.seed", 0)

	// Bounding box defaults
	v.SetDefault("boundingbox.height", 300)
	v.SetDefault("boundingbox.width", 300)
	v.SetDefault("boundingbox.max_bbox_count", 20)
	v.SetDefault("boundingbox.labels", []string{})
	v.SetDefault("boundingbox.type_string", "float")
	v.SetDefault("boundingbox.output_difficult", false)
	v.SetDefault("boundingbox.output_truncated", false)

	// Image augmentation defaults
	v.SetDefault("image.scale_min", 1.0)
	v.SetDefault("image.center_crop", true)
	v.SetDefault("image.flip_enable", false)
	v.SetDefault("image.seed", 0)
}
