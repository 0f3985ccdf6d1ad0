// Package compute launches EC2 instances into provisioned subnets,
// one instance per subnet, behind a shared security group.
package compute

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/asmotherman/sky/internal/naming"
	"github.com/asmotherman/sky/internal/platform/aws"
	"github.com/asmotherman/sky/internal/provisioning/network"
	"github.com/asmotherman/sky/internal/retry"
)

// ErrUnknownOS indicates an OS name with no quick-start image mapping.
var ErrUnknownOS = errors.New("unknown operating system")

const internetCIDR = "0.0.0.0/0"

// maxConcurrentLaunches bounds the instance fan-out so a large subnet
// plan does not hit the API request rate limit.
const maxConcurrentLaunches = 3

// quickStartImages maps OS names to their quick-start AMIs, used when
// no explicit image is configured.
var quickStartImages = map[string]string{
	"amazon-linux": "ami-146e2a7c",
	"redhat":       "ami-12663b7a",
	"suse":         "ami-aeb532c6",
	"ubuntu":       "ami-9a562df2",
}

// Instances accept web traffic and may reach out for web and DNS;
// everything else, including the provider's default allow-all egress,
// is closed.
var (
	defaultIngress = []aws.TrafficRule{
		{Protocol: "tcp", FromPort: 80, ToPort: 80, CIDR: internetCIDR},
		{Protocol: "tcp", FromPort: 443, ToPort: 443, CIDR: internetCIDR},
	}
	defaultEgress = []aws.TrafficRule{
		{Protocol: "tcp", FromPort: 80, ToPort: 80, CIDR: internetCIDR},
		{Protocol: "tcp", FromPort: 443, ToPort: 443, CIDR: internetCIDR},
		{Protocol: "tcp", FromPort: 53, ToPort: 53, CIDR: internetCIDR},
		{Protocol: "udp", FromPort: 53, ToPort: 53, CIDR: internetCIDR},
	}
)

// Options describes one compute provisioning run.
type Options struct {
	Project     string
	Environment string
	NetworkID   string
	// ImageID overrides the OS quick-start image when set.
	ImageID      string
	OS           string
	InstanceType string
	UserData     string
	// SecurityGroupIDs reuses existing groups; when empty a default
	// group is created.
	SecurityGroupIDs []string
}

// Instance is one launched EC2 instance.
type Instance struct {
	ID           string
	Name         string
	SubnetID     string
	Zone         string
	InterfaceIDs []string
}

// Result holds the identifiers of the provisioned compute layer.
type Result struct {
	SecurityGroupIDs []string
	Instances        []Instance
}

// Provisioner launches instances through a ComputeProvider.
type Provisioner struct {
	provider  aws.ComputeProvider
	retryOpts []retry.Option

	// randomID generates the per-instance name suffix; overridable in
	// tests.
	randomID func() string
}

// NewProvisioner creates a compute provisioner. retryOpts tune the
// convergence retries around instance and interface tagging.
func NewProvisioner(provider aws.ComputeProvider, retryOpts ...retry.Option) *Provisioner {
	return &Provisioner{
		provider:  provider,
		retryOpts: retryOpts,
		randomID: func() string {
			return fmt.Sprintf("%08x", rand.Uint32())
		},
	}
}

// Provision creates the security group if needed, then launches one
// instance per subnet. Launches fan out concurrently with a bounded
// limit; naming is finalized before the fan-out starts so concurrency
// never changes which instance gets which name.
func (p *Provisioner) Provision(ctx context.Context, opts Options, subnets []network.Subnet) (*Result, error) {
	groupIDs := opts.SecurityGroupIDs
	if len(groupIDs) == 0 {
		groupID, err := p.createSecurityGroup(ctx, opts)
		if err != nil {
			return nil, err
		}
		groupIDs = []string{groupID}
	}

	imageID, err := resolveImage(opts)
	if err != nil {
		return nil, err
	}

	type launch struct {
		subnet network.Subnet
		id     string
	}
	launches := lo.Map(subnets, func(subnet network.Subnet, _ int) launch {
		return launch{subnet: subnet, id: p.randomID()}
	})

	instances := make([]Instance, len(launches))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentLaunches)
	for i, l := range launches {
		group.Go(func() error {
			instance, err := p.launchInstance(groupCtx, opts, imageID, groupIDs, l.subnet, l.id)
			if err != nil {
				return err
			}
			instances[i] = instance
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &Result{SecurityGroupIDs: groupIDs, Instances: instances}, nil
}

// createSecurityGroup creates the default group: web traffic in, web
// and DNS traffic out, nothing else.
func (p *Provisioner) createSecurityGroup(ctx context.Context, opts Options) (string, error) {
	name := naming.SecurityGroup(opts.Project, opts.Environment)

	log.Printf("Creating security group %s...", name)
	groupID, err := p.provider.CreateSecurityGroup(ctx, name, "Instance security group", opts.NetworkID)
	if err != nil {
		return "", fmt.Errorf("failed to create security group %s: %w", name, err)
	}
	log.Printf("Created security group %s (%s).", name, groupID)

	// The provider grants all egress on creation.
	if err := p.provider.RevokeAllEgress(ctx, groupID); err != nil {
		return "", fmt.Errorf("failed to revoke default egress of %s: %w", groupID, err)
	}

	for _, rule := range defaultIngress {
		if err := p.provider.AuthorizeIngress(ctx, groupID, rule); err != nil {
			return "", fmt.Errorf("failed to authorize ingress on %s: %w", groupID, err)
		}
	}
	for _, rule := range defaultEgress {
		if err := p.provider.AuthorizeEgress(ctx, groupID, rule); err != nil {
			return "", fmt.Errorf("failed to authorize egress on %s: %w", groupID, err)
		}
	}

	if err := p.tag(ctx, []string{groupID}, p.baseTags(opts, name)); err != nil {
		log.Printf("ERROR: could not tag security group %s: %v", groupID, err)
	}

	return groupID, nil
}

// launchInstance runs one instance in the subnet and tags it and its
// network interfaces. A launch failure is fatal; tagging failures are
// logged and skipped, matching the network provisioner.
func (p *Provisioner) launchInstance(ctx context.Context, opts Options, imageID string, groupIDs []string, subnet network.Subnet, id string) (Instance, error) {
	name := naming.Instance(opts.Project, opts.Environment, id)

	log.Printf("Creating instance %s in %s...", name, subnet.Zone)
	instanceID, err := p.provider.RunInstance(ctx, aws.InstanceRunOpts{
		ImageID:           imageID,
		InstanceType:      opts.InstanceType,
		SubnetID:          subnet.ID,
		SecurityGroupIDs:  groupIDs,
		UserData:          opts.UserData,
		AssociatePublicIP: true,
	})
	if err != nil {
		return Instance{}, fmt.Errorf("failed to create instance %s: %w", name, err)
	}
	log.Printf("Created instance %s (%s).", name, instanceID)

	if err := p.tag(ctx, []string{instanceID}, p.baseTags(opts, name)); err != nil {
		log.Printf("ERROR: could not tag instance %s: %v", instanceID, err)
	}

	// The interfaces only become listable once the instance has
	// registered with the service.
	interfaceIDs, err := retry.Do(ctx, func() ([]string, error) {
		return p.provider.ListNetworkInterfaces(ctx, []string{instanceID})
	}, aws.IsNotYetVisible, p.retryOpts...)
	if err != nil {
		log.Printf("ERROR: could not list network interfaces of %s: %v", instanceID, err)
	} else if len(interfaceIDs) > 0 {
		interfaceName := naming.NetworkInterface(opts.Project, opts.Environment, id)
		if err := p.tag(ctx, interfaceIDs, p.baseTags(opts, interfaceName)); err != nil {
			log.Printf("ERROR: could not tag network interfaces of %s: %v", instanceID, err)
		}
	}

	return Instance{
		ID:           instanceID,
		Name:         name,
		SubnetID:     subnet.ID,
		Zone:         subnet.Zone,
		InterfaceIDs: interfaceIDs,
	}, nil
}

func resolveImage(opts Options) (string, error) {
	if opts.ImageID != "" {
		return opts.ImageID, nil
	}
	imageID, ok := quickStartImages[strings.ToLower(opts.OS)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOS, opts.OS)
	}
	return imageID, nil
}

func (p *Provisioner) tag(ctx context.Context, ids []string, tags aws.Tags) error {
	return retry.Converge(ctx, func() error {
		return p.provider.TagResources(ctx, ids, tags)
	}, aws.IsNotYetVisible, p.retryOpts...)
}

func (p *Provisioner) baseTags(opts Options, name string) aws.Tags {
	return aws.Tags{
		"Name":        name,
		"Project":     strings.ToLower(opts.Project),
		"Environment": strings.ToLower(opts.Environment),
	}
}
