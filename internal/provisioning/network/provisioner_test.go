package network

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/smithy-go"

	"github.com/asmotherman/sky/internal/cidr"
	"github.com/asmotherman/sky/internal/planner"
	"github.com/asmotherman/sky/internal/platform/aws"
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
		Project:        "acme",
		Environment:    "staging",
		CIDR:           cidr.MustParse("10.0.0.0/16"),
		ZoneNames:      []string{"us-east-1a", "us-east-1b", "us-east-1c"},
		SubnetsPerZone: 1,
		Public:         true,
	}
}

func TestProvisionHappyPath(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	tagged := map[string]aws.Tags{}
	createdSubnets := map[string]string{} // CIDR -> zone

	seq := 0
	mock := &aws.MockClient{
		TagResourcesFunc: func(_ context.Context, ids []string, tags aws.Tags) error {
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				tagged[id] = tags
			}
			return nil
		},
		CreateSubnetFunc: func(_ context.Context, _, cidrBlock, zone string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			createdSubnets[cidrBlock] = zone
			seq++
			return []string{"subnet-1", "subnet-2", "subnet-3"}[seq-1], nil
		},
	}

	result, err := NewProvisioner(mock, fastRetry()...).Provision(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if result.NetworkID != "vpc-mock" {
		t.Errorf("NetworkID = %q, want vpc-mock", result.NetworkID)
	}
	if result.GatewayID != "igw-mock" {
		t.Errorf("GatewayID = %q, want igw-mock", result.GatewayID)
	}
	if len(result.Subnets) != 3 {
		t.Fatalf("expected 3 subnets, got %d", len(result.Subnets))
	}

	// Three subnets in a /16 plan as /18 blocks in zone name order.
	want := map[string]string{
		"10.0.0.0/18":   "us-east-1a",
		"10.0.64.0/18":  "us-east-1b",
		"10.0.128.0/18": "us-east-1c",
	}
	for block, zone := range want {
		if createdSubnets[block] != zone {
			t.Errorf("block %s created in %q, want %q", block, createdSubnets[block], zone)
		}
	}

	vpcTags := tagged["vpc-mock"]
	if vpcTags == nil {
		t.Fatal("network was never tagged")
	}
	if vpcTags["Name"] != "vpc-acme-staging" {
		t.Errorf("network Name tag = %q, want vpc-acme-staging", vpcTags["Name"])
	}
	if vpcTags["Project"] != "acme" || vpcTags["Environment"] != "staging" {
		t.Errorf("network tags = %v", vpcTags)
	}

	subnetTags := tagged["subnet-1"]
	if subnetTags == nil {
		t.Fatal("subnet was never tagged")
	}
	if subnetTags["Type"] != "public" {
		t.Errorf("subnet Type tag = %q, want public", subnetTags["Type"])
	}
	// The full name exceeds the platform limit, so the resource-type
	// prefix is dropped.
	if subnetTags["Name"] != "acme-staging-us-east-1a-public-1" {
		t.Errorf("subnet Name tag = %q", subnetTags["Name"])
	}

	// The implicit main route table got tagged as such.
	mainTags := tagged["rtb-main-mock"]
	if mainTags == nil || mainTags["Type"] != "main" {
		t.Errorf("main route table tags = %v", mainTags)
	}
}

func TestProvisionRetriesTaggingUntilVisible(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	failures := 0
	mock := &aws.MockClient{
		TagResourcesFunc: func(_ context.Context, ids []string, _ aws.Tags) error {
			mu.Lock()
			defer mu.Unlock()
			if ids[0] == "vpc-mock" && failures < 2 {
				failures++
				return &smithy.GenericAPIError{Code: "InvalidVpcID.NotFound"}
			}
			return nil
		},
	}

	_, err := NewProvisioner(mock, fastRetry()...).Provision(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if failures != 2 {
		t.Errorf("expected 2 transient tagging failures to be retried, got %d", failures)
	}
}

func TestProvisionQuotaExceededAbortsRun(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	creates := 0
	mock := &aws.MockClient{
		CreateSubnetFunc: func(_ context.Context, _, _, _ string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			creates++
			if creates == 2 {
				return "", &smithy.GenericAPIError{Code: "SubnetLimitExceeded"}
			}
			return "subnet-ok", nil
		},
	}

	_, err := NewProvisioner(mock, fastRetry()...).Provision(context.Background(), testOptions())
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if creates != 2 {
		t.Errorf("expected provisioning to stop at the quota error, got %d creates", creates)
	}
}

func TestProvisionContinuesWithoutGateway(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	routesCreated := 0
	mock := &aws.MockClient{
		AttachInternetGatewayFunc: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil
		},
		CreateRouteFunc: func(_ context.Context, _, _, _ string) error {
			mu.Lock()
			defer mu.Unlock()
			routesCreated++
			return nil
		},
	}

	result, err := NewProvisioner(mock, fastRetry()...).Provision(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if result.GatewayID != "" {
		t.Errorf("expected an empty gateway ID after a failed attach, got %q", result.GatewayID)
	}
	if routesCreated != 0 {
		t.Errorf("expected no internet route without a gateway, got %d", routesCreated)
	}
	if len(result.Subnets) != 3 {
		t.Errorf("expected provisioning to continue gateway-less, got %d subnets", len(result.Subnets))
	}
}

func TestProvisionFatalTaggingErrorDoesNotAbort(t *testing.T) {
	t.Parallel()

	mock := &aws.MockClient{
		TagResourcesFunc: func(_ context.Context, _ []string, _ aws.Tags) error {
			return &smithy.GenericAPIError{Code: "UnauthorizedOperation"}
		},
	}

	result, err := NewProvisioner(mock, fastRetry()...).Provision(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if len(result.Subnets) != 3 {
		t.Errorf("expected the run to finish despite tagging failures, got %d subnets", len(result.Subnets))
	}
}

func TestProvisionPrivateSubnets(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var subnetTags aws.Tags
	routesCreated := 0
	mock := &aws.MockClient{
		CreateRouteFunc: func(_ context.Context, _, _, _ string) error {
			mu.Lock()
			defer mu.Unlock()
			routesCreated++
			return nil
		},
		TagResourcesFunc: func(_ context.Context, ids []string, tags aws.Tags) error {
			mu.Lock()
			defer mu.Unlock()
			if ids[0] == "subnet-mock-1" {
				subnetTags = tags
			}
			return nil
		},
	}

	opts := testOptions()
	opts.Public = false
	opts.ZoneNames = []string{"us-east-1a"}

	_, err := NewProvisioner(mock, fastRetry()...).Provision(context.Background(), opts)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if routesCreated != 0 {
		t.Errorf("private route table must not get an internet route, got %d", routesCreated)
	}
	if subnetTags["Type"] != "private" {
		t.Errorf("subnet Type tag = %q, want private", subnetTags["Type"])
	}
}

func TestProvisionUsesExistingSubnetCounts(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var blocks []string
	mock := &aws.MockClient{
		CountSubnetsFunc: func(_ context.Context, _, zone, _ string) (int, error) {
			if zone == "" {
				return 2, nil // two subnets already exist in the network
			}
			return 1, nil // one of them in this zone
		},
		CreateSubnetFunc: func(_ context.Context, _, cidrBlock, _ string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			blocks = append(blocks, cidrBlock)
			return "subnet-new", nil
		},
	}

	opts := testOptions()
	opts.ZoneNames = []string{"us-east-1a"}

	_, err := NewProvisioner(mock, fastRetry()...).Provision(context.Background(), opts)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	// 2 existing + 1 new = 3 subnets total -> /18 children; the new
	// block takes index 2, skipping the existing allocations.
	if len(blocks) != 1 || blocks[0] != "10.0.128.0/18" {
		t.Errorf("created blocks = %v, want [10.0.128.0/18]", blocks)
	}
}

func TestProvisionCapacityErrorBeforeAnySubnet(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	creates := 0
	mock := &aws.MockClient{
		CreateSubnetFunc: func(_ context.Context, _, _, _ string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			creates++
			return "subnet-x", nil
		},
		ListAvailabilityZonesFunc: func(_ context.Context, _ []string) ([]string, error) {
			names := make([]string, 64)
			for i := range names {
				names[i] = string(rune('a'+i%26)) + string(rune('a'+i/26))
			}
			return names, nil
		},
	}

	opts := testOptions()
	opts.CIDR = cidr.MustParse("10.0.0.0/28")
	opts.ZoneNames = nil

	_, err := NewProvisioner(mock, fastRetry()...).Provision(context.Background(), opts)
	if !errors.Is(err, planner.ErrInsufficientCapacity) {
		t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
	}
	if creates != 0 {
		t.Errorf("capacity errors must precede subnet creation, got %d creates", creates)
	}
}
