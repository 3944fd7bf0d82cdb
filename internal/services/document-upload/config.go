package documentupload

import "fmt"

type Config struct {
	MaxPDFFiles    int   `mapstructure:"max_pdf_files"`
	MaxImageFiles  int   `mapstructure:"max_image_files"`
	MaxSingleFiles int   `mapstructure:"max_single_files"`
	MaxFileBytes   int64 `mapstructure:"max_file_bytes"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxPDFFiles:    1,
		MaxImageFiles:  2,
		MaxSingleFiles: 1,
		MaxFileBytes:   20 << 20,
	}
}

func (c *Config) Validate() error {
	if c.MaxPDFFiles <= 0 || c.MaxImageFiles <= 0 || c.MaxSingleFiles <= 0 {
		return fmt.Errorf("file limits must be positive")
	}
	if c.MaxFileBytes <= 0 {
		return fmt.Errorf("max_file_bytes must be positive")
	}
	return nil
}
