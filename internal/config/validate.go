package config

import (
	"errors"
	"fmt"
	"strings"
)

const minLineLength = 10

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateDubbing(); err != nil {
		return err
	}
	return c.validateProgress()
}

func (c *Config) validateFilter() error {
	if c.Filter.MinUniqueRatio < 0 || c.Filter.MinUniqueRatio > 1 {
		return errors.New("filter.min_unique_ratio must be between 0 and 1")
	}
	if c.Filter.MaxNoSpeechProb < 0 || c.Filter.MaxNoSpeechProb > 1 {
		return errors.New("filter.max_no_speech_prob must be between 0 and 1")
	}
	if c.Filter.MaxCompressionRatio <= 0 {
		return errors.New("filter.max_compression_ratio must be positive")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if len(c.Translation.PivotLanguage) != 2 {
		return fmt.Errorf("translation.pivot_language must be a two-letter code, got %q", c.Translation.PivotLanguage)
	}
	for pair := range c.Translation.Models {
		parts := strings.Split(pair, "-")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("translation.models key %q must look like \"src-tgt\"", pair)
		}
	}
	return nil
}

func (c *Config) validateValidation() error {
	if !c.Validation.Enabled {
		return nil
	}
	if c.Validation.BaseURL == "" {
		return errors.New("validation.base_url must be set when validation.enabled is true")
	}
	if c.Validation.Double && c.Validation.FallbackModel == "" {
		return errors.New("validation.fallback_model must be set when validation.double is true")
	}
	if c.Validation.Temperature < 0 || c.Validation.Temperature > 2 {
		return errors.New("validation.temperature must be between 0 and 2")
	}
	if c.Validation.TopP < 0 || c.Validation.TopP > 1 {
		return errors.New("validation.top_p must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	switch c.Captions.Format {
	case "srt", "vtt":
	default:
		return fmt.Errorf("captions.format must be srt or vtt, got %q", c.Captions.Format)
	}
	if c.Captions.MinDuration <= 0 {
		return errors.New("captions.min_duration must be positive")
	}
	if c.Captions.MaxDuration < c.Captions.MinDuration {
		return errors.New("captions.max_duration must be >= captions.min_duration")
	}
	if c.Captions.MinGap < 0 {
		return errors.New("captions.min_gap must be non-negative")
	}
	if c.Captions.LineLength < minLineLength {
		return fmt.Errorf("captions.line_length must be at least %d", minLineLength)
	}
	if c.Captions.MaxChars < c.Captions.LineLength {
		return errors.New("captions.max_chars must be >= captions.line_length")
	}
	if c.Captions.MaxChars > 2*c.Captions.LineLength {
		return errors.New("captions.max_chars must fit on two lines (<= 2 * captions.line_length)")
	}
	return nil
}

func (c *Config) validateDubbing() error {
	if c.Dubbing.ToleranceSeconds > 1 {
		return errors.New("dubbing.tolerance_seconds must be at most 1")
	}
	return nil
}

func (c *Config) validateProgress() error {
	factors := map[string]float64{
		"progress.transcribe_factor": c.Progress.TranscribeFactor,
		"progress.translate_factor":  c.Progress.TranslateFactor,
		"progress.validate_factor":   c.Progress.ValidateFactor,
		"progress.synthesize_factor": c.Progress.SynthesizeFactor,
		"progress.burn_factor":       c.Progress.BurnFactor,
	}
	for key, value := range factors {
		if value < 0 {
			return fmt.Errorf("%s must be non-negative", key)
		}
	}
	return nil
}
