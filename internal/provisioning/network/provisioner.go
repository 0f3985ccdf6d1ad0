// Package network provisions the VPC topology: the network itself, its
// internet gateway, route tables and subnets, in dependency order.
//
// Provisioning is best-effort forward progress: resources that were
// created stay in place when a later step fails, and a tagging step
// that cannot converge is logged and skipped rather than aborting the
// run. Only quota exhaustion and planning errors stop everything.
package network

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/asmotherman/sky/internal/cidr"
	"github.com/asmotherman/sky/internal/naming"
	"github.com/asmotherman/sky/internal/planner"
	"github.com/asmotherman/sky/internal/platform/aws"
	"github.com/asmotherman/sky/internal/retry"
)

// ErrQuotaExceeded indicates the account subnet quota was hit; the run
// terminates immediately, leaving already-created resources in place.
var ErrQuotaExceeded = errors.New("subnet quota exceeded")

// internetCIDR is the destination for internet-bound routes.
const internetCIDR = "0.0.0.0/0"

// Options describes one provisioning run.
type Options struct {
	Project     string
	Environment string
	CIDR        cidr.Block
	// ZoneNames is the explicit zone selection; nil means every
	// available zone in the region.
	ZoneNames      []string
	SubnetsPerZone int
	Public         bool
	Policy         planner.Policy
}

// Subnet is one provisioned subnet.
type Subnet struct {
	ID     string
	Name   string
	Zone   string
	Block  cidr.Block
	Public bool
}

// Result holds the identifiers of the provisioned topology.
type Result struct {
	NetworkID    string
	GatewayID    string
	RouteTableID string
	Subnets      []Subnet
}

// Provisioner creates the network topology through a NetworkProvider.
type Provisioner struct {
	provider  aws.NetworkProvider
	retryOpts []retry.Option
}

// NewProvisioner creates a network provisioner. retryOpts tune the
// convergence retries around tagging and association calls.
func NewProvisioner(provider aws.NetworkProvider, retryOpts ...retry.Option) *Provisioner {
	return &Provisioner{provider: provider, retryOpts: retryOpts}
}

// Provision creates the network, gateway, route table and subnets in
// strict dependency order. Each step completes, including its
// convergence retries, before the next begins.
func (p *Provisioner) Provision(ctx context.Context, opts Options) (*Result, error) {
	networkID, err := p.createNetwork(ctx, opts)
	if err != nil {
		return nil, err
	}

	gatewayID := p.attachInternetGateway(ctx, opts, networkID)

	p.tagDefaultResources(ctx, opts, networkID)

	routeTableID, subnets, err := p.provisionSubnets(ctx, opts, networkID, gatewayID)
	if err != nil {
		return nil, err
	}

	return &Result{
		NetworkID:    networkID,
		GatewayID:    gatewayID,
		RouteTableID: routeTableID,
		Subnets:      subnets,
	}, nil
}

// createNetwork creates and tags the VPC.
func (p *Provisioner) createNetwork(ctx context.Context, opts Options) (string, error) {
	name := naming.Network(opts.Project, opts.Environment)

	log.Printf("Creating network %s with CIDR block %s...", name, opts.CIDR)
	networkID, err := p.provider.CreateNetwork(ctx, opts.CIDR.String())
	if err != nil {
		return "", fmt.Errorf("failed to create network %s: %w", name, err)
	}
	log.Printf("Created network %s (%s).", name, networkID)

	if err := p.tag(ctx, []string{networkID}, p.baseTags(opts, name)); err != nil {
		log.Printf("ERROR: could not tag network %s: %v", networkID, err)
	}

	return networkID, nil
}

// attachInternetGateway creates, tags and attaches an internet gateway.
// A failed attach leaves the network gateway-less: the failure is
// logged and provisioning continues.
func (p *Provisioner) attachInternetGateway(ctx context.Context, opts Options, networkID string) string {
	name := naming.InternetGateway(opts.Project, opts.Environment)

	gatewayID, err := p.provider.CreateInternetGateway(ctx)
	if err != nil {
		log.Printf("ERROR: could not create internet gateway %s: %v", name, err)
		return ""
	}

	if err := p.tag(ctx, []string{gatewayID}, p.baseTags(opts, name)); err != nil {
		log.Printf("ERROR: could not tag internet gateway %s: %v", gatewayID, err)
	}

	log.Printf("Attaching internet gateway %s to network %s...", name, networkID)
	attached, err := p.provider.AttachInternetGateway(ctx, gatewayID, networkID)
	if err != nil || !attached {
		if err != nil {
			log.Printf("ERROR: could not attach internet gateway %s: %v", name, err)
		} else {
			log.Printf("ERROR: could not attach internet gateway %s.", name)
		}
		return ""
	}
	log.Printf("Attached internet gateway %s.", name)

	return gatewayID
}

// tagDefaultResources names the resources the provider creates
// implicitly with the network: the main route table, the default
// network ACL and the DHCP options set. Each is independent; a
// resource whose tagging cannot converge is skipped.
func (p *Provisioner) tagDefaultResources(ctx context.Context, opts Options, networkID string) {
	tables, err := retry.Do(ctx, func() ([]string, error) {
		return p.provider.ListRouteTables(ctx, networkID)
	}, aws.IsNotYetVisible, p.retryOpts...)
	if err != nil {
		log.Printf("ERROR: could not list route tables of %s: %v", networkID, err)
	}
	for _, tableID := range tables {
		tags := p.baseTags(opts, naming.MainRouteTable(opts.Project, opts.Environment))
		tags["Type"] = "main"
		if err := p.tag(ctx, []string{tableID}, tags); err != nil {
			log.Printf("ERROR: could not tag main route table %s: %v", tableID, err)
		}
	}

	acls, err := retry.Do(ctx, func() ([]string, error) {
		return p.provider.ListNetworkACLs(ctx, networkID)
	}, aws.IsNotYetVisible, p.retryOpts...)
	if err != nil {
		log.Printf("ERROR: could not list network ACLs of %s: %v", networkID, err)
	}
	for _, aclID := range acls {
		if err := p.tag(ctx, []string{aclID}, p.baseTags(opts, naming.NetworkACL(opts.Project, opts.Environment))); err != nil {
			log.Printf("ERROR: could not tag network ACL %s: %v", aclID, err)
		}
	}

	dhcpOptions, err := retry.Do(ctx, func() ([]string, error) {
		return p.provider.ListDHCPOptions(ctx, networkID)
	}, aws.IsNotYetVisible, p.retryOpts...)
	if err != nil {
		log.Printf("ERROR: could not list DHCP options of %s: %v", networkID, err)
	}
	for _, optionsID := range dhcpOptions {
		if err := p.tag(ctx, []string{optionsID}, p.baseTags(opts, naming.DHCPOptions(opts.Project, opts.Environment))); err != nil {
			log.Printf("ERROR: could not tag DHCP options %s: %v", optionsID, err)
		}
	}
}

// provisionSubnets plans the partition, creates the shared route table
// and then each subnet in plan order.
func (p *Provisioner) provisionSubnets(ctx context.Context, opts Options, networkID, gatewayID string) (string, []Subnet, error) {
	entries, err := p.plan(ctx, opts, networkID)
	if err != nil {
		return "", nil, err
	}

	routeTableID, err := p.createRouteTable(ctx, opts, networkID, gatewayID)
	if err != nil {
		return "", nil, err
	}

	subnets := make([]Subnet, 0, len(entries))
	for _, entry := range entries {
		subnet, err := p.createSubnet(ctx, opts, networkID, routeTableID, entry)
		if err != nil {
			return routeTableID, subnets, err
		}
		subnets = append(subnets, subnet)
	}

	return routeTableID, subnets, nil
}

// plan resolves zones and existing subnet counts, then computes the
// partition. Planning happens before any subnet is created so that a
// capacity error never leaves a partial allocation behind.
func (p *Provisioner) plan(ctx context.Context, opts Options, networkID string) ([]planner.Entry, error) {
	zoneNames, err := p.provider.ListAvailabilityZones(ctx, opts.ZoneNames)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve availability zones: %w", err)
	}

	subnetType := typeTag(opts.Public)
	zones := make([]planner.Zone, 0, len(zoneNames))
	for _, zoneName := range zoneNames {
		existing, err := p.provider.CountSubnets(ctx, networkID, zoneName, subnetType)
		if err != nil {
			return nil, fmt.Errorf("failed to count subnets in %s: %w", zoneName, err)
		}
		zones = append(zones, planner.Zone{Name: zoneName, ExistingSubnets: existing})
	}

	existingTotal, err := p.provider.CountSubnets(ctx, networkID, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to count subnets in %s: %w", networkID, err)
	}

	return planner.Plan(planner.Request{
		Parent:        opts.CIDR,
		Zones:         zones,
		CountPerZone:  opts.SubnetsPerZone,
		ExistingTotal: existingTotal,
		Public:        opts.Public,
		Policy:        opts.Policy,
	})
}

// createRouteTable creates the route table shared by this run's
// subnets, adding an internet route when the subnets are public and a
// gateway is available.
func (p *Provisioner) createRouteTable(ctx context.Context, opts Options, networkID, gatewayID string) (string, error) {
	existing, err := p.provider.ListRouteTables(ctx, networkID)
	if err != nil {
		return "", fmt.Errorf("failed to list route tables: %w", err)
	}
	// The main table takes the zero slot.
	seq := len(existing) - 1
	if seq < 0 {
		seq = 0
	}
	name := naming.RouteTable(opts.Project, opts.Environment, opts.Public, seq)

	routeTableID, err := p.provider.CreateRouteTable(ctx, networkID)
	if err != nil {
		return "", fmt.Errorf("failed to create route table %s: %w", name, err)
	}

	if opts.Public {
		if gatewayID == "" {
			log.Printf("ERROR: no internet gateway available; %s gets no internet route.", name)
		} else {
			err := retry.Converge(ctx, func() error {
				return p.provider.CreateRoute(ctx, routeTableID, internetCIDR, gatewayID)
			}, aws.IsNotYetVisible, p.retryOpts...)
			if err != nil {
				log.Printf("ERROR: could not add internet route to %s: %v", routeTableID, err)
			}
		}
	}

	tags := p.baseTags(opts, name)
	tags["Type"] = typeTag(opts.Public)
	if err := p.tag(ctx, []string{routeTableID}, tags); err != nil {
		log.Printf("ERROR: could not tag route table %s: %v", routeTableID, err)
	}

	log.Printf("Created route table %s (%s).", name, routeTableID)
	return routeTableID, nil
}

// createSubnet creates one planned subnet, associates it with the
// route table and tags it. Quota exhaustion is fatal to the whole run;
// association and tagging failures are logged and skipped.
func (p *Provisioner) createSubnet(ctx context.Context, opts Options, networkID, routeTableID string, entry planner.Entry) (Subnet, error) {
	name := naming.Subnet(opts.Project, opts.Environment, entry.Zone.Name, entry.Public,
		entry.Zone.ExistingSubnets, entry.Index-entry.Zone.ExistingSubnets, opts.SubnetsPerZone)

	log.Printf("Creating subnet %s (%s) in %s...", name, entry.Block, entry.Zone.Name)
	subnetID, err := p.provider.CreateSubnet(ctx, networkID, entry.Block.String(), entry.Zone.Name)
	if err != nil {
		if aws.IsQuotaExceeded(err) {
			return Subnet{}, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return Subnet{}, fmt.Errorf("failed to create subnet %s: %w", name, err)
	}
	log.Printf("Created subnet %s (%s) with %d available IP addresses.", name, subnetID, entry.Block.UsableHosts())

	associationID, err := retry.Do(ctx, func() (string, error) {
		return p.provider.AssociateRouteTable(ctx, routeTableID, subnetID)
	}, aws.IsNotYetVisible, p.retryOpts...)
	if err != nil {
		log.Printf("ERROR: could not associate subnet %s with %s: %v", subnetID, routeTableID, err)
	} else {
		log.Printf("Associated subnet %s with %s (%s).", subnetID, routeTableID, associationID)
	}

	tags := p.baseTags(opts, name)
	tags["Type"] = typeTag(entry.Public)
	if err := p.tag(ctx, []string{subnetID}, tags); err != nil {
		log.Printf("ERROR: could not tag subnet %s: %v", subnetID, err)
	}

	return Subnet{
		ID:     subnetID,
		Name:   name,
		Zone:   entry.Zone.Name,
		Block:  entry.Block,
		Public: entry.Public,
	}, nil
}

// tag applies tags through the convergence retrier: freshly created
// resources stay invisible to the tagging API for a few seconds.
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

func typeTag(public bool) string {
	if public {
		return "public"
	}
	return "private"
}
