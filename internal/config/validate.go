package config

import (
	"fmt"
	"net"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.WorkerNode.validate(); err != nil {
		return fmt.Errorf("worker_node: %w", err)
	}
	if err := c.Processing.validate(); err != nil {
		return fmt.Errorf("processing: %w", err)
	}
	if err := c.Promotion.validate(); err != nil {
		return fmt.Errorf("promotion: %w", err)
	}
	return nil
}

func (w *WorkerNodeConfig) validate() error {
	if w.MACAddress != "" {
		if _, err := net.ParseMAC(w.MACAddress); err != nil {
			return fmt.Errorf("mac_address %q: %w", w.MACAddress, err)
		}
	}
	if w.APIPort <= 0 || w.APIPort > 65535 {
		return fmt.Errorf("api_port must be in 1..65535 (got %d)", w.APIPort)
	}
	if w.ProbePort <= 0 || w.ProbePort > 65535 {
		return fmt.Errorf("probe_port must be in 1..65535 (got %d)", w.ProbePort)
	}
	if w.WakeAttempts <= 0 {
		return fmt.Errorf("wake_attempts must be > 0 (got %d)", w.WakeAttempts)
	}
	return nil
}

func (p *ProcessingConfig) validate() error {
	if p.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", p.BatchSize)
	}
	if p.SubBatchSize <= 0 {
		return fmt.Errorf("sub_batch_size must be > 0 (got %d)", p.SubBatchSize)
	}
	if p.Workers <= 0 {
		return fmt.Errorf("workers must be > 0 (got %d)", p.Workers)
	}
	return nil
}

func (p *PromotionConfig) validate() error {
	if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0,1] (got %v)", p.SimilarityThreshold)
	}
	if p.MinMentions < 1 {
		return fmt.Errorf("min_mentions must be >= 1 (got %d)", p.MinMentions)
	}
	return nil
}
