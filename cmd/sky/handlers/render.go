package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/asmotherman/sky/internal/config"
	"github.com/asmotherman/sky/internal/provisioning/compute"
	"github.com/asmotherman/sky/internal/provisioning/network"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9fafb"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

func printRow(name, value string) {
	fmt.Printf("  %s  %s\n", nameStyle.Render(fmt.Sprintf("%-14s", name)), valueStyle.Render(value))
}

// printNetworkSummary prints the provisioned topology.
func printNetworkSummary(cfg *config.Config, result *network.Result) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("  sky network: %s/%s", strings.ToLower(cfg.Project), strings.ToLower(cfg.Environment))))
	fmt.Println(dimStyle.Render("  " + strings.Repeat("=", 30)))
	fmt.Println()

	printRow("network", result.NetworkID)
	if result.GatewayID != "" {
		printRow("gateway", result.GatewayID)
	} else {
		printRow("gateway", "none (attach failed)")
	}
	printRow("route table", result.RouteTableID)
	fmt.Println()

	fmt.Println(sectionStyle.Render(fmt.Sprintf("  Subnets (%d)", len(result.Subnets))))
	fmt.Println(dimStyle.Render("  " + strings.Repeat("-", 35)))
	for _, subnet := range result.Subnets {
		printRow(subnet.ID, fmt.Sprintf("%s  %s  %s", subnet.Block, subnet.Zone, subnet.Name))
	}
	fmt.Println()
}

// printComputeSummary prints the launched instances.
func printComputeSummary(result *compute.Result) {
	fmt.Println(sectionStyle.Render(fmt.Sprintf("  Instances (%d)", len(result.Instances))))
	fmt.Println(dimStyle.Render("  " + strings.Repeat("-", 35)))
	printRow("security group", strings.Join(result.SecurityGroupIDs, ", "))
	for _, instance := range result.Instances {
		printRow(instance.ID, fmt.Sprintf("%s  %s  %s", instance.Zone, instance.Name, strings.Join(instance.InterfaceIDs, ", ")))
	}
	fmt.Println()
}

// printInitSuccess prints the wizard result summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Environment Summary")
	fmt.Println("-------------------")
	fmt.Printf("  Project:       %s\n", cfg.Project)
	fmt.Printf("  Environment:   %s\n", cfg.Environment)
	fmt.Printf("  Region:        %s\n", cfg.Region)
	fmt.Printf("  CIDR:          %s\n", cfg.Network.CIDR)
	fmt.Printf("  Zones:         %s\n", zoneSummary(cfg))
	fmt.Printf("  Subnets/zone:  %d (%s)\n", cfg.Network.SubnetsPerZone, subnetKind(cfg))
	if cfg.Compute.Enabled {
		fmt.Printf("  Instances:     %s (%s)\n", cfg.Compute.InstanceType, lo.CoalesceOrEmpty(cfg.Compute.ImageID, cfg.Compute.OS))
	}
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Printf("  1. Review %s\n", outputPath)
	fmt.Printf("  2. Run: sky network --config %s\n", outputPath)
	if cfg.Compute.Enabled {
		fmt.Printf("     or: sky up --config %s to launch instances too\n", outputPath)
	}
	fmt.Println()
}

func zoneSummary(cfg *config.Config) string {
	names := cfg.Network.ZoneNames()
	if names == nil {
		return "all available"
	}
	return strings.Join(names, ", ")
}

func subnetKind(cfg *config.Config) string {
	if cfg.Network.Public {
		return "public"
	}
	return "private"
}
