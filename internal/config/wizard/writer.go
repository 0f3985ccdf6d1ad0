package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/asmotherman/sky/internal/config"
)

// WriteConfig writes the config to a YAML file with a descriptive
// header. Only the sections the wizard actually filled in are written.
func WriteConfig(cfg *config.Config, outputPath string) error {
	yamlBytes, err := yaml.Marshal(buildFileConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// FileConfig mirrors Config with YAML tags for output; the loader
// accepts the same keys through mapstructure.
type FileConfig struct {
	Project     string       `yaml:"project"`
	Environment string       `yaml:"environment"`
	Region      string       `yaml:"region"`
	Network     FileNetwork  `yaml:"network"`
	Compute     *FileCompute `yaml:"compute,omitempty"`
}

// FileNetwork contains the network section of the output file.
type FileNetwork struct {
	CIDR           string `yaml:"cidr"`
	Zones          string `yaml:"zones"`
	SubnetsPerZone int    `yaml:"subnets_per_zone"`
	Public         bool   `yaml:"public"`
	Balanced       bool   `yaml:"balanced,omitempty"`
	ByteAligned    bool   `yaml:"byte_aligned,omitempty"`
}

// FileCompute contains the compute section, present only when enabled.
type FileCompute struct {
	Enabled      bool   `yaml:"enabled"`
	ImageID      string `yaml:"image_id,omitempty"`
	OS           string `yaml:"os,omitempty"`
	InstanceType string `yaml:"instance_type"`
}

func buildFileConfig(cfg *config.Config) *FileConfig {
	fileCfg := &FileConfig{
		Project:     cfg.Project,
		Environment: cfg.Environment,
		Region:      cfg.Region,
		Network: FileNetwork{
			CIDR:           cfg.Network.CIDR,
			Zones:          cfg.Network.Zones,
			SubnetsPerZone: cfg.Network.SubnetsPerZone,
			Public:         cfg.Network.Public,
			Balanced:       cfg.Network.Balanced,
			ByteAligned:    cfg.Network.ByteAligned,
		},
	}

	if cfg.Compute.Enabled {
		fileCfg.Compute = &FileCompute{
			Enabled:      true,
			ImageID:      cfg.Compute.ImageID,
			OS:           cfg.Compute.OS,
			InstanceType: cfg.Compute.InstanceType,
		}
	}

	return fileCfg
}

func generateHeader(outputPath string) string {
	return fmt.Sprintf(`# sky environment configuration
# Generated by: sky init
# Date: %s
# File: %s
#
# Provision with:
#   sky network --config %s
#   sky up --config %s
`, time.Now().Format("2006-01-02 15:04:05"), outputPath, outputPath, outputPath)
}
