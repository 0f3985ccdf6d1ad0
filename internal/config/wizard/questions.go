package wizard

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/asmotherman/sky/internal/cidr"
)

// projectNameRegex validates the project name: 1-32 lowercase
// alphanumeric with hyphens.
var projectNameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,30}[a-z0-9])?$`)

// regionOptions lists the regions offered by the wizard; any region
// can still be set in the file directly.
var regionOptions = []huh.Option[string]{
	huh.NewOption("us-east-1 (N. Virginia)", "us-east-1"),
	huh.NewOption("us-west-2 (Oregon)", "us-west-2"),
	huh.NewOption("eu-west-1 (Ireland)", "eu-west-1"),
	huh.NewOption("eu-central-1 (Frankfurt)", "eu-central-1"),
	huh.NewOption("ap-southeast-2 (Sydney)", "ap-southeast-2"),
}

var osOptions = []huh.Option[string]{
	huh.NewOption("Ubuntu", "ubuntu"),
	huh.NewOption("Amazon Linux", "amazon-linux"),
	huh.NewOption("Red Hat", "redhat"),
	huh.NewOption("SUSE", "suse"),
}

// runIdentityGroup prompts for project, environment and region.
func runIdentityGroup(ctx context.Context, result *Result) error {
	result.Region = "us-east-1"
	result.Environment = "dev"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project Name").
				Description("1-32 lowercase alphanumeric characters or hyphens").
				Placeholder("my-project").
				Value(&result.Project).
				Validate(validateProjectName),
			huh.NewInput().
				Title("Environment").
				Description("e.g. dev, staging, prod").
				Value(&result.Environment).
				Validate(validateProjectName),
			huh.NewSelect[string]().
				Title("Region").
				Options(regionOptions...).
				Value(&result.Region),
		).Title("Project Identity"),
	).RunWithContext(ctx)
}

// runNetworkGroup prompts for the VPC topology.
func runNetworkGroup(ctx context.Context, result *Result) error {
	result.CIDR = "10.0.0.0/16"
	result.Zones = "all"
	count := "1"

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Network CIDR").
				Description("Private IPv4 block for the VPC, /16 to /28").
				Value(&result.CIDR).
				Validate(validateCIDR),
			huh.NewInput().
				Title("Availability Zones").
				Description("Comma-separated zone names, or \"all\" for every zone in the region").
				Value(&result.Zones),
			huh.NewInput().
				Title("Subnets per Zone").
				Value(&count).
				Validate(validateCount),
			huh.NewConfirm().
				Title("Public Subnets").
				Description("Public subnets get a route to the internet gateway").
				Value(&result.Public),
		).Title("Network"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	result.SubnetsPerZone, _ = strconv.Atoi(strings.TrimSpace(count))
	return nil
}

// runPolicyGroup prompts for the subnet sizing policy.
func runPolicyGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Balanced Sizing").
				Description("Split the spare address space between subnet size and future growth").
				Value(&result.Balanced),
			huh.NewConfirm().
				Title("Byte-Aligned Netmasks").
				Description("Round subnet netmasks to octet boundaries for readability").
				Value(&result.ByteAligned),
		).Title("Sizing Policy"),
	).RunWithContext(ctx)
}

// runComputeGroup prompts for the optional compute layer.
func runComputeGroup(ctx context.Context, result *Result) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Launch Instances").
				Description("Launch one EC2 instance per subnet after the network is up").
				Value(&result.ComputeEnabled),
		).Title("Compute"),
	).RunWithContext(ctx)

	if err != nil || !result.ComputeEnabled {
		return err
	}

	result.OS = "ubuntu"
	result.InstanceType = "t2.micro"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Operating System").
				Description("Quick-start image to launch").
				Options(osOptions...).
				Value(&result.OS),
			huh.NewInput().
				Title("Instance Type").
				Value(&result.InstanceType),
		).Title("Instances"),
	).RunWithContext(ctx)
}

func validateProjectName(name string) error {
	if name == "" {
		return errProjectRequired
	}
	if !projectNameRegex.MatchString(name) {
		return errProjectInvalid
	}
	return nil
}

func validateCIDR(value string) error {
	if strings.TrimSpace(value) == "" {
		return errCIDRRequired
	}
	block, err := cidr.Parse(value)
	if err != nil {
		return err
	}
	return cidr.ValidateVPC(block)
}

func validateCount(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return errCountInvalid
	}
	return nil
}
