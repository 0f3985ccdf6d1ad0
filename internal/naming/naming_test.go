package naming

import (
	"strings"
	"testing"
)

func TestResourceNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "Network",
			got:      Network("acme", "staging"),
			expected: "vpc-acme-staging",
		},
		{
			name:     "InternetGateway",
			got:      InternetGateway("acme", "staging"),
			expected: "igw-acme-staging",
		},
		{
			name:     "MainRouteTable",
			got:      MainRouteTable("acme", "staging"),
			expected: "rtb-acme-staging-main",
		},
		{
			name:     "PublicRouteTable",
			got:      RouteTable("acme", "staging", true, 0),
			expected: "rtb-acme-staging-public-0",
		},
		{
			name:     "PrivateRouteTable",
			got:      RouteTable("acme", "staging", false, 2),
			expected: "rtb-acme-staging-private-2",
		},
		{
			name:     "NetworkACL",
			got:      NetworkACL("acme", "staging"),
			expected: "acl-acme-staging",
		},
		{
			name:     "DHCPOptions",
			got:      DHCPOptions("acme", "staging"),
			expected: "dopt-acme-staging",
		},
		{
			name:     "SecurityGroup",
			got:      SecurityGroup("acme", "staging"),
			expected: "gp-acme-staging",
		},
		{
			name:     "Instance",
			got:      Instance("acme", "staging", "deadbeef"),
			expected: "ec2-acme-staging-deadbeef",
		},
		{
			name:     "NetworkInterface",
			got:      NetworkInterface("acme", "staging", "deadbeef"),
			expected: "eni-acme-staging-deadbeef",
		},
		{
			name:     "NamesAreLowerCased",
			got:      Network("Acme", "Staging"),
			expected: "vpc-acme-staging",
		},
	}

	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.expected)
		}
	}
}

func TestShortenDropsResourceTypeFirst(t *testing.T) {
	t.Parallel()

	p := Parts{
		ResourceType: "subnet",
		Project:      "acme",
		Environment:  "production",
		Zone:         "us-east-1c",
		SubnetType:   "public",
		Suffix:       "01",
	}

	// 43 characters joined; dropping the resource type alone brings it
	// to 36, so the later rules must not fire.
	got := Shorten(p, MaxSubnetNameLength)
	want := "acme-production-us-east-1c-public-01"
	if got != want {
		t.Errorf("Shorten() = %q, want %q", got, want)
	}
}

func TestShortenAbbreviatesSubnetType(t *testing.T) {
	t.Parallel()

	p := Parts{
		ResourceType: "subnet",
		Project:      "acme",
		Environment:  "staging",
		Zone:         "ap-southeast-2a",
		SubnetType:   "public",
		Suffix:       "01",
	}

	got := Shorten(p, MaxSubnetNameLength)
	want := "acme-staging-ap-southeast-2a-pub-01"
	if got != want {
		t.Errorf("Shorten() = %q, want %q", got, want)
	}
}

func TestShortenAbbreviatesEnvironmentLast(t *testing.T) {
	t.Parallel()

	p := Parts{
		ResourceType: "subnet",
		Project:      "gossamer",
		Environment:  "staging",
		Zone:         "ap-southeast-2a",
		SubnetType:   "private",
		Suffix:       "01",
	}

	got := Shorten(p, MaxSubnetNameLength)
	want := "gossamer-stg-ap-southeast-2a-priv-01"
	if got != want {
		t.Errorf("Shorten() = %q, want %q", got, want)
	}
}

func TestShortenGivesUpWithoutFailing(t *testing.T) {
	t.Parallel()

	p := Parts{
		ResourceType: "subnet",
		Project:      "an-unreasonably-long-project-name",
		Environment:  "production",
		Zone:         "ap-southeast-2a",
		SubnetType:   "private",
		Suffix:       "01",
	}

	got := Shorten(p, MaxSubnetNameLength)
	if len(got) <= MaxSubnetNameLength {
		t.Fatalf("expected an over-long name to survive shortening, got %q (%d chars)", got, len(got))
	}
	// All three rules applied: no resource type, abbreviated type token.
	if strings.HasPrefix(got, "subnet-") {
		t.Errorf("resource type not dropped: %q", got)
	}
	if strings.Contains(got, "private") {
		t.Errorf("subnet type not abbreviated: %q", got)
	}
}

func TestShortenIsIdempotentWhenNameFits(t *testing.T) {
	t.Parallel()

	p := Parts{
		ResourceType: "subnet",
		Project:      "acme",
		Environment:  "dev",
		Zone:         "us-east-1a",
		SubnetType:   "public",
		Suffix:       "01",
	}

	first := Shorten(p, MaxSubnetNameLength)
	if first != p.Join() {
		t.Errorf("fitting name was altered: got %q, want %q", first, p.Join())
	}
	if again := Shorten(p, MaxSubnetNameLength); again != first {
		t.Errorf("Shorten not idempotent: %q then %q", first, again)
	}
}

func TestSubnetNames(t *testing.T) {
	t.Parallel()

	// Zero existing subnets, one per zone: 1-based suffix without padding.
	got := Subnet("acme", "dev", "us-east-1a", true, 0, 0, 1)
	if want := "subnet-acme-dev-us-east-1a-public-1"; got != want {
		t.Errorf("Subnet() = %q, want %q", got, want)
	}

	// Ten existing subnets, two more: suffix padded to the width of 12.
	got = Subnet("acme", "dev", "us-east-1a", false, 10, 0, 2)
	if want := "subnet-acme-dev-us-east-1a-private-11"; got != want {
		t.Errorf("Subnet() = %q, want %q", got, want)
	}
}

func TestSubnetNamesAreUniquePerZoneIndex(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, zone := range []string{"us-east-1a", "us-east-1b", "us-east-1c"} {
		for i := 0; i < 4; i++ {
			name := Subnet("acme", "staging", zone, true, 2, i, 4)
			if seen[name] {
				t.Errorf("duplicate subnet name %q for zone %s index %d", name, zone, i)
			}
			seen[name] = true
		}
	}
}
