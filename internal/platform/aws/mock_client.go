package aws

import (
	"context"
	"fmt"
)

// MockClient is a function-field mock of NetworkProvider and
// ComputeProvider. Unset fields return canned happy-path values so
// tests only stub what they assert on.
type MockClient struct {
	CreateNetworkFunc         func(ctx context.Context, cidrBlock string) (string, error)
	CreateInternetGatewayFunc func(ctx context.Context) (string, error)
	AttachInternetGatewayFunc func(ctx context.Context, gatewayID, networkID string) (bool, error)
	ListRouteTablesFunc       func(ctx context.Context, networkID string) ([]string, error)
	CreateRouteTableFunc      func(ctx context.Context, networkID string) (string, error)
	CreateRouteFunc           func(ctx context.Context, routeTableID, destinationCIDR, gatewayID string) error
	CreateSubnetFunc          func(ctx context.Context, networkID, cidrBlock, zone string) (string, error)
	AssociateRouteTableFunc   func(ctx context.Context, routeTableID, subnetID string) (string, error)
	TagResourcesFunc          func(ctx context.Context, ids []string, tags Tags) error
	ListAvailabilityZonesFunc func(ctx context.Context, names []string) ([]string, error)
	CountSubnetsFunc          func(ctx context.Context, networkID, zone, subnetType string) (int, error)
	ListNetworkACLsFunc       func(ctx context.Context, networkID string) ([]string, error)
	ListDHCPOptionsFunc       func(ctx context.Context, networkID string) ([]string, error)

	CreateSecurityGroupFunc   func(ctx context.Context, name, description, networkID string) (string, error)
	RevokeAllEgressFunc       func(ctx context.Context, groupID string) error
	AuthorizeIngressFunc      func(ctx context.Context, groupID string, rule TrafficRule) error
	AuthorizeEgressFunc       func(ctx context.Context, groupID string, rule TrafficRule) error
	RunInstanceFunc           func(ctx context.Context, opts InstanceRunOpts) (string, error)
	ListNetworkInterfacesFunc func(ctx context.Context, instanceIDs []string) ([]string, error)

	subnetSeq int
}

var (
	_ NetworkProvider = (*MockClient)(nil)
	_ ComputeProvider = (*MockClient)(nil)
)

// CreateNetwork mocks VPC creation.
func (m *MockClient) CreateNetwork(ctx context.Context, cidrBlock string) (string, error) {
	if m.CreateNetworkFunc != nil {
		return m.CreateNetworkFunc(ctx, cidrBlock)
	}
	return "vpc-mock", nil
}

// CreateInternetGateway mocks gateway creation.
func (m *MockClient) CreateInternetGateway(ctx context.Context) (string, error) {
	if m.CreateInternetGatewayFunc != nil {
		return m.CreateInternetGatewayFunc(ctx)
	}
	return "igw-mock", nil
}

// AttachInternetGateway mocks gateway attachment.
func (m *MockClient) AttachInternetGateway(ctx context.Context, gatewayID, networkID string) (bool, error) {
	if m.AttachInternetGatewayFunc != nil {
		return m.AttachInternetGatewayFunc(ctx, gatewayID, networkID)
	}
	return true, nil
}

// ListRouteTables mocks listing route tables.
func (m *MockClient) ListRouteTables(ctx context.Context, networkID string) ([]string, error) {
	if m.ListRouteTablesFunc != nil {
		return m.ListRouteTablesFunc(ctx, networkID)
	}
	return []string{"rtb-main-mock"}, nil
}

// CreateRouteTable mocks route table creation.
func (m *MockClient) CreateRouteTable(ctx context.Context, networkID string) (string, error) {
	if m.CreateRouteTableFunc != nil {
		return m.CreateRouteTableFunc(ctx, networkID)
	}
	return "rtb-mock", nil
}

// CreateRoute mocks route creation.
func (m *MockClient) CreateRoute(ctx context.Context, routeTableID, destinationCIDR, gatewayID string) error {
	if m.CreateRouteFunc != nil {
		return m.CreateRouteFunc(ctx, routeTableID, destinationCIDR, gatewayID)
	}
	return nil
}

// CreateSubnet mocks subnet creation with sequential IDs.
func (m *MockClient) CreateSubnet(ctx context.Context, networkID, cidrBlock, zone string) (string, error) {
	if m.CreateSubnetFunc != nil {
		return m.CreateSubnetFunc(ctx, networkID, cidrBlock, zone)
	}
	m.subnetSeq++
	return fmt.Sprintf("subnet-mock-%d", m.subnetSeq), nil
}

// AssociateRouteTable mocks route table association.
func (m *MockClient) AssociateRouteTable(ctx context.Context, routeTableID, subnetID string) (string, error) {
	if m.AssociateRouteTableFunc != nil {
		return m.AssociateRouteTableFunc(ctx, routeTableID, subnetID)
	}
	return "rtbassoc-mock", nil
}

// TagResources mocks tagging.
func (m *MockClient) TagResources(ctx context.Context, ids []string, tags Tags) error {
	if m.TagResourcesFunc != nil {
		return m.TagResourcesFunc(ctx, ids, tags)
	}
	return nil
}

// ListAvailabilityZones mocks zone listing.
func (m *MockClient) ListAvailabilityZones(ctx context.Context, names []string) ([]string, error) {
	if m.ListAvailabilityZonesFunc != nil {
		return m.ListAvailabilityZonesFunc(ctx, names)
	}
	if len(names) > 0 {
		return names, nil
	}
	return []string{"us-east-1a", "us-east-1b"}, nil
}

// CountSubnets mocks subnet counting.
func (m *MockClient) CountSubnets(ctx context.Context, networkID, zone, subnetType string) (int, error) {
	if m.CountSubnetsFunc != nil {
		return m.CountSubnetsFunc(ctx, networkID, zone, subnetType)
	}
	return 0, nil
}

// ListNetworkACLs mocks ACL listing.
func (m *MockClient) ListNetworkACLs(ctx context.Context, networkID string) ([]string, error) {
	if m.ListNetworkACLsFunc != nil {
		return m.ListNetworkACLsFunc(ctx, networkID)
	}
	return []string{"acl-mock"}, nil
}

// ListDHCPOptions mocks DHCP options listing.
func (m *MockClient) ListDHCPOptions(ctx context.Context, networkID string) ([]string, error) {
	if m.ListDHCPOptionsFunc != nil {
		return m.ListDHCPOptionsFunc(ctx, networkID)
	}
	return []string{"dopt-mock"}, nil
}

// CreateSecurityGroup mocks security group creation.
func (m *MockClient) CreateSecurityGroup(ctx context.Context, name, description, networkID string) (string, error) {
	if m.CreateSecurityGroupFunc != nil {
		return m.CreateSecurityGroupFunc(ctx, name, description, networkID)
	}
	return "sg-mock", nil
}

// RevokeAllEgress mocks revoking the default egress rule.
func (m *MockClient) RevokeAllEgress(ctx context.Context, groupID string) error {
	if m.RevokeAllEgressFunc != nil {
		return m.RevokeAllEgressFunc(ctx, groupID)
	}
	return nil
}

// AuthorizeIngress mocks adding an inbound rule.
func (m *MockClient) AuthorizeIngress(ctx context.Context, groupID string, rule TrafficRule) error {
	if m.AuthorizeIngressFunc != nil {
		return m.AuthorizeIngressFunc(ctx, groupID, rule)
	}
	return nil
}

// AuthorizeEgress mocks adding an outbound rule.
func (m *MockClient) AuthorizeEgress(ctx context.Context, groupID string, rule TrafficRule) error {
	if m.AuthorizeEgressFunc != nil {
		return m.AuthorizeEgressFunc(ctx, groupID, rule)
	}
	return nil
}

// RunInstance mocks launching an instance.
func (m *MockClient) RunInstance(ctx context.Context, opts InstanceRunOpts) (string, error) {
	if m.RunInstanceFunc != nil {
		return m.RunInstanceFunc(ctx, opts)
	}
	return "i-mock", nil
}

// ListNetworkInterfaces mocks interface listing.
func (m *MockClient) ListNetworkInterfaces(ctx context.Context, instanceIDs []string) ([]string, error) {
	if m.ListNetworkInterfacesFunc != nil {
		return m.ListNetworkInterfacesFunc(ctx, instanceIDs)
	}
	return []string{"eni-mock"}, nil
}
