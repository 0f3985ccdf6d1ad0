package aws

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Client implements NetworkProvider and ComputeProvider against the
// real EC2 API.
type Client struct {
	ec2    *ec2.Client
	region string
}

var (
	_ NetworkProvider = (*Client)(nil)
	_ ComputeProvider = (*Client)(nil)
)

// NewClient creates an EC2-backed client. When accessKey is empty the
// default credential chain (environment, shared config, instance role)
// is used.
func NewClient(ctx context.Context, region, accessKey, secretKey string) (*Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{ec2: ec2.NewFromConfig(cfg), region: region}, nil
}

// NewClientFromEC2 wraps an existing EC2 client. Used by tests that
// point the SDK at a local HTTP server.
func NewClientFromEC2(client *ec2.Client, region string) *Client {
	return &Client{ec2: client, region: region}
}

// CreateNetwork creates a VPC with default tenancy.
func (c *Client) CreateNetwork(ctx context.Context, cidrBlock string) (string, error) {
	out, err := c.ec2.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:       aws.String(cidrBlock),
		InstanceTenancy: types.TenancyDefault,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create VPC: %w", err)
	}
	return aws.ToString(out.Vpc.VpcId), nil
}

// CreateInternetGateway creates a detached internet gateway.
func (c *Client) CreateInternetGateway(ctx context.Context) (string, error) {
	out, err := c.ec2.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{})
	if err != nil {
		return "", fmt.Errorf("failed to create internet gateway: %w", err)
	}
	return aws.ToString(out.InternetGateway.InternetGatewayId), nil
}

// AttachInternetGateway attaches the gateway to the network.
func (c *Client) AttachInternetGateway(ctx context.Context, gatewayID, networkID string) (bool, error) {
	_, err := c.ec2.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: aws.String(gatewayID),
		VpcId:             aws.String(networkID),
	})
	if err != nil {
		return false, fmt.Errorf("failed to attach internet gateway %s: %w", gatewayID, err)
	}
	return true, nil
}

// ListRouteTables returns the IDs of all route tables in the network.
func (c *Client) ListRouteTables(ctx context.Context, networkID string) ([]string, error) {
	out, err := c.ec2.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
		Filters: vpcFilter(networkID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list route tables: %w", err)
	}

	ids := make([]string, 0, len(out.RouteTables))
	for _, table := range out.RouteTables {
		ids = append(ids, aws.ToString(table.RouteTableId))
	}
	return ids, nil
}

// CreateRouteTable creates an empty route table in the network.
func (c *Client) CreateRouteTable(ctx context.Context, networkID string) (string, error) {
	out, err := c.ec2.CreateRouteTable(ctx, &ec2.CreateRouteTableInput{
		VpcId: aws.String(networkID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create route table: %w", err)
	}
	return aws.ToString(out.RouteTable.RouteTableId), nil
}

// CreateRoute adds a gateway route to the route table.
func (c *Client) CreateRoute(ctx context.Context, routeTableID, destinationCIDR, gatewayID string) error {
	_, err := c.ec2.CreateRoute(ctx, &ec2.CreateRouteInput{
		RouteTableId:         aws.String(routeTableID),
		DestinationCidrBlock: aws.String(destinationCIDR),
		GatewayId:            aws.String(gatewayID),
	})
	if err != nil {
		return fmt.Errorf("failed to create route in %s: %w", routeTableID, err)
	}
	return nil
}

// CreateSubnet creates a subnet in the given zone.
func (c *Client) CreateSubnet(ctx context.Context, networkID, cidrBlock, zone string) (string, error) {
	out, err := c.ec2.CreateSubnet(ctx, &ec2.CreateSubnetInput{
		VpcId:            aws.String(networkID),
		CidrBlock:        aws.String(cidrBlock),
		AvailabilityZone: aws.String(zone),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create subnet %s: %w", cidrBlock, err)
	}
	return aws.ToString(out.Subnet.SubnetId), nil
}

// AssociateRouteTable associates the subnet with the route table and
// returns the association ID.
func (c *Client) AssociateRouteTable(ctx context.Context, routeTableID, subnetID string) (string, error) {
	out, err := c.ec2.AssociateRouteTable(ctx, &ec2.AssociateRouteTableInput{
		RouteTableId: aws.String(routeTableID),
		SubnetId:     aws.String(subnetID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to associate %s with %s: %w", subnetID, routeTableID, err)
	}
	return aws.ToString(out.AssociationId), nil
}

// TagResources applies the tag set to every listed resource.
func (c *Client) TagResources(ctx context.Context, ids []string, tags Tags) error {
	ec2Tags := make([]types.Tag, 0, len(tags))
	for key, value := range tags {
		ec2Tags = append(ec2Tags, types.Tag{Key: aws.String(key), Value: aws.String(value)})
	}

	_, err := c.ec2.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: ids,
		Tags:      ec2Tags,
	})
	if err != nil {
		return fmt.Errorf("failed to tag %v: %w", ids, err)
	}
	return nil
}

// ListAvailabilityZones resolves zone names to the zones currently
// available in the region. An empty names slice returns all of them.
func (c *Client) ListAvailabilityZones(ctx context.Context, names []string) ([]string, error) {
	input := &ec2.DescribeAvailabilityZonesInput{
		Filters: []types.Filter{{
			Name:   aws.String("state"),
			Values: []string{"available"},
		}},
	}
	if len(names) > 0 {
		input.ZoneNames = names
	}

	out, err := c.ec2.DescribeAvailabilityZones(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability zones: %w", err)
	}

	zones := make([]string, 0, len(out.AvailabilityZones))
	for _, zone := range out.AvailabilityZones {
		zones = append(zones, aws.ToString(zone.ZoneName))
	}
	return zones, nil
}

// CountSubnets counts subnets in the network, optionally narrowed by
// zone and the Type tag.
func (c *Client) CountSubnets(ctx context.Context, networkID, zone, subnetType string) (int, error) {
	filters := vpcFilter(networkID)
	if zone != "" {
		filters = append(filters, types.Filter{
			Name:   aws.String("availability-zone"),
			Values: []string{zone},
		})
	}
	if subnetType != "" {
		filters = append(filters, types.Filter{
			Name:   aws.String("tag:Type"),
			Values: []string{subnetType},
		})
	}

	out, err := c.ec2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{Filters: filters})
	if err != nil {
		return 0, fmt.Errorf("failed to count subnets: %w", err)
	}
	return len(out.Subnets), nil
}

// ListNetworkACLs returns the IDs of the network ACLs in the network.
func (c *Client) ListNetworkACLs(ctx context.Context, networkID string) ([]string, error) {
	out, err := c.ec2.DescribeNetworkAcls(ctx, &ec2.DescribeNetworkAclsInput{
		Filters: vpcFilter(networkID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list network ACLs: %w", err)
	}

	ids := make([]string, 0, len(out.NetworkAcls))
	for _, acl := range out.NetworkAcls {
		ids = append(ids, aws.ToString(acl.NetworkAclId))
	}
	return ids, nil
}

// ListDHCPOptions returns the ID of the DHCP options set attached to
// the network.
func (c *Client) ListDHCPOptions(ctx context.Context, networkID string) ([]string, error) {
	out, err := c.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		VpcIds: []string{networkID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe VPC %s: %w", networkID, err)
	}

	var ids []string
	for _, vpc := range out.Vpcs {
		if id := aws.ToString(vpc.DhcpOptionsId); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CreateSecurityGroup creates a security group in the network.
func (c *Client) CreateSecurityGroup(ctx context.Context, name, description, networkID string) (string, error) {
	out, err := c.ec2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
		VpcId:       aws.String(networkID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create security group %s: %w", name, err)
	}
	return aws.ToString(out.GroupId), nil
}

// RevokeAllEgress removes the default allow-all egress rule.
func (c *Client) RevokeAllEgress(ctx context.Context, groupID string) error {
	_, err := c.ec2.RevokeSecurityGroupEgress(ctx, &ec2.RevokeSecurityGroupEgressInput{
		GroupId: aws.String(groupID),
		IpPermissions: []types.IpPermission{{
			IpProtocol: aws.String("-1"),
			IpRanges:   []types.IpRange{{CidrIp: aws.String("0.0.0.0/0")}},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to revoke default egress on %s: %w", groupID, err)
	}
	return nil
}

// AuthorizeIngress adds one inbound rule to the group.
func (c *Client) AuthorizeIngress(ctx context.Context, groupID string, rule TrafficRule) error {
	_, err := c.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: []types.IpPermission{permission(rule)},
	})
	if err != nil {
		return fmt.Errorf("failed to authorize ingress on %s: %w", groupID, err)
	}
	return nil
}

// AuthorizeEgress adds one outbound rule to the group.
func (c *Client) AuthorizeEgress(ctx context.Context, groupID string, rule TrafficRule) error {
	_, err := c.ec2.AuthorizeSecurityGroupEgress(ctx, &ec2.AuthorizeSecurityGroupEgressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: []types.IpPermission{permission(rule)},
	})
	if err != nil {
		return fmt.Errorf("failed to authorize egress on %s: %w", groupID, err)
	}
	return nil
}

// RunInstance launches a single instance and returns its ID.
func (c *Client) RunInstance(ctx context.Context, opts InstanceRunOpts) (string, error) {
	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(opts.ImageID),
		InstanceType: types.InstanceType(opts.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		NetworkInterfaces: []types.InstanceNetworkInterfaceSpecification{{
			DeviceIndex:              aws.Int32(0),
			SubnetId:                 aws.String(opts.SubnetID),
			Groups:                   opts.SecurityGroupIDs,
			AssociatePublicIpAddress: aws.Bool(opts.AssociatePublicIP),
		}},
	}
	if opts.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(opts.UserData)))
	}

	out, err := c.ec2.RunInstances(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run instance in %s: %w", opts.SubnetID, err)
	}
	if len(out.Instances) == 0 {
		return "", fmt.Errorf("run instance in %s returned no instances", opts.SubnetID)
	}
	return aws.ToString(out.Instances[0].InstanceId), nil
}

// ListNetworkInterfaces returns the interfaces attached to the given
// instances. Recently launched instances may not be visible yet; the
// call fails with a not-yet-visible error until they are.
func (c *Client) ListNetworkInterfaces(ctx context.Context, instanceIDs []string) ([]string, error) {
	out, err := c.ec2.DescribeNetworkInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{
		Filters: []types.Filter{{
			Name:   aws.String("attachment.instance-id"),
			Values: instanceIDs,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	ids := make([]string, 0, len(out.NetworkInterfaces))
	for _, iface := range out.NetworkInterfaces {
		ids = append(ids, aws.ToString(iface.NetworkInterfaceId))
	}
	return ids, nil
}

func permission(rule TrafficRule) types.IpPermission {
	perm := types.IpPermission{
		IpProtocol: aws.String(rule.Protocol),
		FromPort:   aws.Int32(rule.FromPort),
		ToPort:     aws.Int32(rule.ToPort),
	}
	if rule.CIDR != "" {
		perm.IpRanges = []types.IpRange{{CidrIp: aws.String(rule.CIDR)}}
	}
	if rule.GroupID != "" {
		perm.UserIdGroupPairs = []types.UserIdGroupPair{{GroupId: aws.String(rule.GroupID)}}
	}
	return perm
}

func vpcFilter(networkID string) []types.Filter {
	return []types.Filter{{
		Name:   aws.String("vpc-id"),
		Values: []string{networkID},
	}}
}
