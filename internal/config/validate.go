package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The API key is not required
// here so that config commands work before credentials are set; commands that
// call the service check it with RequireAPIKey.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateOpenAI(); err != nil {
		return err
	}
	return nil
}

// RequireAPIKey reports a helpful error when no speech-to-text credential is configured.
func (c *Config) RequireAPIKey() error {
	if c.OpenAI.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/chunkscribe/config.toml"
	}
	return fmt.Errorf("openai.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'chunkscribe config init')", defaultPath)
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if t.Language == "" {
		return errors.New("transcription.language must be set")
	}
	if t.MaxAttempts > 10 {
		return errors.New("transcription.max_attempts must be 10 or fewer")
	}
	if t.Workers > 64 {
		return errors.New("transcription.workers must be 64 or fewer")
	}
	switch t.OffsetFallback {
	case OffsetFallbackNone, OffsetFallbackNominal:
	default:
		return fmt.Errorf("transcription.offset_fallback must be %q or %q, got %q", OffsetFallbackNone, OffsetFallbackNominal, t.OffsetFallback)
	}
	switch t.TrailingPolicy {
	case TrailingPolicyDrop, TrailingPolicyEmit:
	default:
		return fmt.Errorf("transcription.trailing_policy must be %q or %q, got %q", TrailingPolicyDrop, TrailingPolicyEmit, t.TrailingPolicy)
	}
	return nil
}

func (c *Config) validateOpenAI() error {
	if c.OpenAI.Model == "" {
		return errors.New("openai.model must be set")
	}
	if c.OpenAI.BaseURL == "" {
		return errors.New("openai.base_url must be set")
	}
	return nil
}
