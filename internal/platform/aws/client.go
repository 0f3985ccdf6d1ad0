// Package aws wraps the EC2 API behind the narrow provider interfaces
// the provisioners depend on. Resources are passed around as opaque
// identifier strings; all state lives on the provider side and is
// re-queried each run.
package aws

import "context"

// Tags is the tag set applied to a resource. Applying the same tags
// twice is harmless, so tagging can be retried freely.
type Tags map[string]string

// TrafficRule describes one security group rule. Exactly one of CIDR
// and GroupID identifies the traffic source or destination.
type TrafficRule struct {
	Protocol string
	FromPort int32
	ToPort   int32
	CIDR     string
	GroupID  string
}

// InstanceRunOpts holds the parameters for launching one instance.
type InstanceRunOpts struct {
	ImageID           string
	InstanceType      string
	SubnetID          string
	SecurityGroupIDs  []string
	UserData          string
	AssociatePublicIP bool
}

// NetworkProvider is the control-plane surface the network provisioner
// needs. Follow-up calls against freshly created resources may fail
// with not-yet-visible errors; callers wrap them in retry.Converge
// using IsNotYetVisible as the classifier.
type NetworkProvider interface {
	CreateNetwork(ctx context.Context, cidrBlock string) (string, error)
	CreateInternetGateway(ctx context.Context) (string, error)
	// AttachInternetGateway reports whether the attachment took effect;
	// the provider signals a failed attach as a false return, not an error.
	AttachInternetGateway(ctx context.Context, gatewayID, networkID string) (bool, error)
	ListRouteTables(ctx context.Context, networkID string) ([]string, error)
	CreateRouteTable(ctx context.Context, networkID string) (string, error)
	CreateRoute(ctx context.Context, routeTableID, destinationCIDR, gatewayID string) error
	CreateSubnet(ctx context.Context, networkID, cidrBlock, zone string) (string, error)
	AssociateRouteTable(ctx context.Context, routeTableID, subnetID string) (string, error)
	TagResources(ctx context.Context, ids []string, tags Tags) error
	// ListAvailabilityZones resolves zone names; an empty names slice
	// returns every available zone in the region.
	ListAvailabilityZones(ctx context.Context, names []string) ([]string, error)
	// CountSubnets counts subnets in the network, optionally narrowed
	// by zone and by the Type tag ("public"/"private").
	CountSubnets(ctx context.Context, networkID, zone, subnetType string) (int, error)
	ListNetworkACLs(ctx context.Context, networkID string) ([]string, error)
	ListDHCPOptions(ctx context.Context, networkID string) ([]string, error)
}

// ComputeProvider is the control-plane surface the compute provisioner
// needs.
type ComputeProvider interface {
	CreateSecurityGroup(ctx context.Context, name, description, networkID string) (string, error)
	RevokeAllEgress(ctx context.Context, groupID string) error
	AuthorizeIngress(ctx context.Context, groupID string, rule TrafficRule) error
	AuthorizeEgress(ctx context.Context, groupID string, rule TrafficRule) error
	RunInstance(ctx context.Context, opts InstanceRunOpts) (string, error)
	ListNetworkInterfaces(ctx context.Context, instanceIDs []string) ([]string, error)
	TagResources(ctx context.Context, ids []string, tags Tags) error
}
