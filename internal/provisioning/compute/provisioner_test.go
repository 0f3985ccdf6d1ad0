package compute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/smithy-go"

	"github.com/asmotherman/sky/internal/platform/aws"
	"github.com/asmotherman/sky/internal/provisioning/network"
	"github.com/asmotherman/sky/internal/retry"
)

func fastRetry() []retry.Option {
	return []retry.Option{
		retry.WithMaxAttempts(3),
		retry.WithInitialDelay(time.Millisecond),
	}
}

func testOptions() Options {
	return Options{
		Project:      "acme",
		Environment:  "dev",
		NetworkID:    "vpc-mock",
		OS:           "ubuntu",
		InstanceType: "t2.micro",
	}
}

func testSubnets(n int) []network.Subnet {
	subnets := make([]network.Subnet, n)
	for i := range subnets {
		subnets[i] = network.Subnet{
			ID:   fmt.Sprintf("subnet-%d", i+1),
			Zone: fmt.Sprintf("us-east-1%c", 'a'+i),
		}
	}
	return subnets
}

// sequentialIDs makes instance name suffixes deterministic.
func sequentialIDs(p *Provisioner) {
	seq := 0
	var mu sync.Mutex
	p.randomID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("%08x", seq)
	}
}

func TestProvisionLaunchesOneInstancePerSubnet(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var runs []aws.InstanceRunOpts
	tagged := map[string]aws.Tags{}

	seq := 0
	mock := &aws.MockClient{
		RunInstanceFunc: func(_ context.Context, opts aws.InstanceRunOpts) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			runs = append(runs, opts)
			seq++
			return fmt.Sprintf("i-%d", seq), nil
		},
		TagResourcesFunc: func(_ context.Context, ids []string, tags aws.Tags) error {
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				tagged[id] = tags
			}
			return nil
		},
	}

	p := NewProvisioner(mock, fastRetry()...)
	sequentialIDs(p)

	result, err := p.Provision(context.Background(), testOptions(), testSubnets(3))
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if len(result.Instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(result.Instances))
	}
	if result.SecurityGroupIDs[0] != "sg-mock" {
		t.Errorf("SecurityGroupIDs = %v, want [sg-mock]", result.SecurityGroupIDs)
	}

	subnetIDs := map[string]bool{}
	for _, run := range runs {
		subnetIDs[run.SubnetID] = true
		if run.ImageID != "ami-9a562df2" {
			t.Errorf("ImageID = %q, want the ubuntu quick-start image", run.ImageID)
		}
		if run.InstanceType != "t2.micro" {
			t.Errorf("InstanceType = %q", run.InstanceType)
		}
		if !run.AssociatePublicIP {
			t.Error("instances should get a public IP")
		}
		if len(run.SecurityGroupIDs) != 1 || run.SecurityGroupIDs[0] != "sg-mock" {
			t.Errorf("SecurityGroupIDs = %v", run.SecurityGroupIDs)
		}
	}
	if len(subnetIDs) != 3 {
		t.Errorf("instances launched into %d distinct subnets, want 3", len(subnetIDs))
	}

	// Instance i-th keeps the i-th subnet regardless of launch order.
	for i, instance := range result.Instances {
		if instance.SubnetID != fmt.Sprintf("subnet-%d", i+1) {
			t.Errorf("instance %d in %q, want subnet-%d", i, instance.SubnetID, i+1)
		}
		if instance.InterfaceIDs[0] != "eni-mock" {
			t.Errorf("instance %d interfaces = %v", i, instance.InterfaceIDs)
		}
	}

	for id, tags := range tagged {
		if tags["Project"] != "acme" || tags["Environment"] != "dev" {
			t.Errorf("resource %s tags = %v", id, tags)
		}
	}
	if tags := tagged["eni-mock"]; tags == nil || tags["Name"] == "" {
		t.Errorf("network interface tags = %v", tagged["eni-mock"])
	}
}

func TestProvisionCreatesDefaultSecurityGroup(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var groupName string
	egressRevoked := false
	var ingress, egress []aws.TrafficRule

	mock := &aws.MockClient{
		CreateSecurityGroupFunc: func(_ context.Context, name, _, networkID string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			groupName = name
			if networkID != "vpc-mock" {
				t.Errorf("networkID = %q", networkID)
			}
			return "sg-1", nil
		},
		RevokeAllEgressFunc: func(_ context.Context, groupID string) error {
			mu.Lock()
			defer mu.Unlock()
			egressRevoked = true
			if len(ingress)+len(egress) > 0 {
				t.Error("default egress must be revoked before any rule is added")
			}
			return nil
		},
		AuthorizeIngressFunc: func(_ context.Context, _ string, rule aws.TrafficRule) error {
			mu.Lock()
			defer mu.Unlock()
			ingress = append(ingress, rule)
			return nil
		},
		AuthorizeEgressFunc: func(_ context.Context, _ string, rule aws.TrafficRule) error {
			mu.Lock()
			defer mu.Unlock()
			egress = append(egress, rule)
			return nil
		},
	}

	p := NewProvisioner(mock, fastRetry()...)
	sequentialIDs(p)

	result, err := p.Provision(context.Background(), testOptions(), testSubnets(1))
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if result.SecurityGroupIDs[0] != "sg-1" {
		t.Errorf("SecurityGroupIDs = %v", result.SecurityGroupIDs)
	}
	if groupName != "gp-acme-dev" {
		t.Errorf("group name = %q, want gp-acme-dev", groupName)
	}
	if !egressRevoked {
		t.Error("default egress was never revoked")
	}

	wantPorts := func(rules []aws.TrafficRule) map[string]bool {
		ports := map[string]bool{}
		for _, rule := range rules {
			ports[fmt.Sprintf("%s/%d", rule.Protocol, rule.FromPort)] = true
			if rule.CIDR != "0.0.0.0/0" {
				t.Errorf("rule target = %q, want 0.0.0.0/0", rule.CIDR)
			}
		}
		return ports
	}
	in := wantPorts(ingress)
	if len(in) != 2 || !in["tcp/80"] || !in["tcp/443"] {
		t.Errorf("ingress rules = %v", ingress)
	}
	out := wantPorts(egress)
	if len(out) != 4 || !out["tcp/80"] || !out["tcp/443"] || !out["tcp/53"] || !out["udp/53"] {
		t.Errorf("egress rules = %v", egress)
	}
}

func TestProvisionReusesGivenSecurityGroups(t *testing.T) {
	t.Parallel()

	mock := &aws.MockClient{
		CreateSecurityGroupFunc: func(_ context.Context, _, _, _ string) (string, error) {
			t.Error("no security group should be created")
			return "", nil
		},
	}

	p := NewProvisioner(mock, fastRetry()...)
	sequentialIDs(p)

	opts := testOptions()
	opts.SecurityGroupIDs = []string{"sg-existing"}

	result, err := p.Provision(context.Background(), opts, testSubnets(1))
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if result.SecurityGroupIDs[0] != "sg-existing" {
		t.Errorf("SecurityGroupIDs = %v", result.SecurityGroupIDs)
	}
}

func TestProvisionExplicitImageOverridesOS(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var imageID string
	mock := &aws.MockClient{
		RunInstanceFunc: func(_ context.Context, opts aws.InstanceRunOpts) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			imageID = opts.ImageID
			return "i-1", nil
		},
	}

	p := NewProvisioner(mock, fastRetry()...)
	sequentialIDs(p)

	opts := testOptions()
	opts.ImageID = "ami-custom"
	opts.OS = ""

	if _, err := p.Provision(context.Background(), opts, testSubnets(1)); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if imageID != "ami-custom" {
		t.Errorf("ImageID = %q, want ami-custom", imageID)
	}
}

func TestProvisionUnknownOS(t *testing.T) {
	t.Parallel()

	p := NewProvisioner(&aws.MockClient{}, fastRetry()...)
	sequentialIDs(p)

	opts := testOptions()
	opts.OS = "plan9"

	_, err := p.Provision(context.Background(), opts, testSubnets(1))
	if !errors.Is(err, ErrUnknownOS) {
		t.Fatalf("expected ErrUnknownOS, got %v", err)
	}
}

func TestProvisionLaunchFailureAborts(t *testing.T) {
	t.Parallel()

	mock := &aws.MockClient{
		RunInstanceFunc: func(_ context.Context, opts aws.InstanceRunOpts) (string, error) {
			if opts.SubnetID == "subnet-2" {
				return "", &smithy.GenericAPIError{Code: "InsufficientInstanceCapacity"}
			}
			return "i-ok", nil
		},
	}

	p := NewProvisioner(mock, fastRetry()...)
	sequentialIDs(p)

	_, err := p.Provision(context.Background(), testOptions(), testSubnets(3))
	if err == nil {
		t.Fatal("expected a launch failure to surface")
	}
}

func TestProvisionRetriesInterfaceListing(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	attempts := 0
	var interfaceTags aws.Tags
	mock := &aws.MockClient{
		ListNetworkInterfacesFunc: func(_ context.Context, _ []string) ([]string, error) {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if attempts == 1 {
				return nil, &smithy.GenericAPIError{Code: "InvalidInstanceID.NotFound"}
			}
			return []string{"eni-1"}, nil
		},
		TagResourcesFunc: func(_ context.Context, ids []string, tags aws.Tags) error {
			mu.Lock()
			defer mu.Unlock()
			if ids[0] == "eni-1" {
				interfaceTags = tags
			}
			return nil
		},
	}

	p := NewProvisioner(mock, fastRetry()...)
	sequentialIDs(p)

	result, err := p.Provision(context.Background(), testOptions(), testSubnets(1))
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if attempts != 2 {
		t.Errorf("interface listing attempts = %d, want 2", attempts)
	}
	if got := result.Instances[0].InterfaceIDs; len(got) != 1 || got[0] != "eni-1" {
		t.Errorf("InterfaceIDs = %v", got)
	}
	if interfaceTags["Name"] != "eni-acme-dev-00000001" {
		t.Errorf("interface Name tag = %q", interfaceTags["Name"])
	}
}

func TestProvisionTaggingFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	mock := &aws.MockClient{
		TagResourcesFunc: func(_ context.Context, _ []string, _ aws.Tags) error {
			return &smithy.GenericAPIError{Code: "UnauthorizedOperation"}
		},
	}

	p := NewProvisioner(mock, fastRetry()...)
	sequentialIDs(p)

	result, err := p.Provision(context.Background(), testOptions(), testSubnets(2))
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if len(result.Instances) != 2 {
		t.Errorf("expected 2 instances despite tagging failures, got %d", len(result.Instances))
	}
}
