package wizard

import "github.com/asmotherman/sky/internal/config"

// BuildConfig creates a Config struct from the wizard result.
func BuildConfig(result *Result) *config.Config {
	cfg := &config.Config{
		Project:     result.Project,
		Environment: result.Environment,
		Region:      result.Region,
		Network: config.Network{
			CIDR:           result.CIDR,
			Zones:          result.Zones,
			SubnetsPerZone: result.SubnetsPerZone,
			Public:         result.Public,
			Balanced:       result.Balanced,
			ByteAligned:    result.ByteAligned,
		},
	}

	if result.ComputeEnabled {
		cfg.Compute = config.Compute{
			Enabled:      true,
			OS:           result.OS,
			InstanceType: result.InstanceType,
		}
	}

	cfg.ApplyDefaults()
	return cfg
}
