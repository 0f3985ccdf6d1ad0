// Package naming generates deterministic names for AWS resources.
//
// Names are hyphen-joined, lower-cased part lists. Every resource the
// provisioner touches is named through this package so that a project
// and environment pair always maps to the same set of names.
package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSubnetNameLength is the longest subnet name the platform accepts.
const MaxSubnetNameLength = 37

// Parts holds the ordered components of a resource name. Empty
// components are skipped when joining.
type Parts struct {
	ResourceType string
	Project      string
	Environment  string
	Zone         string
	SubnetType   string
	Suffix       string
}

// Join builds the full hyphen-joined, lower-cased name.
func (p Parts) Join() string {
	var parts []string
	for _, part := range []string{p.ResourceType, p.Project, p.Environment, p.Zone, p.SubnetType, p.Suffix} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.ToLower(strings.Join(parts, "-"))
}

var subnetTypeAbbreviations = map[string]string{
	"public":  "pub",
	"private": "priv",
}

var environmentAbbreviations = map[string]string{
	"prod":    "prd",
	"staging": "stg",
}

// Shorten returns the joined name, applying shortening rules in
// priority order until it fits max. Each rule applies at most once:
// first the resource-type token is dropped, then the subnet-type token
// is abbreviated, then the environment token. The resource type is the
// most redundant token, so it goes first; the environment changes human
// meaning most, so it goes last. A name that still exceeds max after
// all rules is returned as-is.
func Shorten(p Parts, max int) string {
	name := p.Join()
	if len(name) <= max {
		return name
	}

	p.ResourceType = ""
	if name = p.Join(); len(name) <= max {
		return name
	}

	if abbr, ok := subnetTypeAbbreviations[strings.ToLower(p.SubnetType)]; ok {
		p.SubnetType = abbr
		if name = p.Join(); len(name) <= max {
			return name
		}
	}

	if abbr, ok := environmentAbbreviations[strings.ToLower(p.Environment)]; ok {
		p.Environment = abbr
		name = p.Join()
	}

	return name
}

// Network returns the VPC name.
func Network(project, environment string) string {
	return Parts{ResourceType: "vpc", Project: project, Environment: environment}.Join()
}

// InternetGateway returns the internet gateway name.
func InternetGateway(project, environment string) string {
	return Parts{ResourceType: "igw", Project: project, Environment: environment}.Join()
}

// MainRouteTable returns the name for a VPC's implicit main route table.
func MainRouteTable(project, environment string) string {
	return Parts{ResourceType: "rtb", Project: project, Environment: environment, Suffix: "main"}.Join()
}

// RouteTable returns the name for the seq-th public or private route table.
func RouteTable(project, environment string, public bool, seq int) string {
	return Parts{
		ResourceType: "rtb",
		Project:      project,
		Environment:  environment,
		SubnetType:   subnetType(public),
		Suffix:       strconv.Itoa(seq),
	}.Join()
}

// NetworkACL returns the name for a VPC's network ACL.
func NetworkACL(project, environment string) string {
	return Parts{ResourceType: "acl", Project: project, Environment: environment}.Join()
}

// DHCPOptions returns the name for a VPC's DHCP options set.
func DHCPOptions(project, environment string) string {
	return Parts{ResourceType: "dopt", Project: project, Environment: environment}.Join()
}

// SecurityGroup returns the default security group name.
func SecurityGroup(project, environment string) string {
	return Parts{ResourceType: "gp", Project: project, Environment: environment}.Join()
}

// Instance returns an EC2 instance name carrying a run-unique id.
func Instance(project, environment, id string) string {
	return Parts{ResourceType: "ec2", Project: project, Environment: environment, Suffix: id}.Join()
}

// NetworkInterface returns a network interface name carrying a run-unique id.
func NetworkInterface(project, environment, id string) string {
	return Parts{ResourceType: "eni", Project: project, Environment: environment, Suffix: id}.Join()
}

// Subnet returns the name for the index-th new subnet in a zone,
// shortened to the platform limit if necessary. offset is the number of
// same-type subnets that already exist in the zone; count is the number
// of subnets being added per zone, which fixes the zero-pad width so
// that names sort correctly within one run.
func Subnet(project, environment, zone string, public bool, offset, index, count int) string {
	width := len(strconv.Itoa(offset + count))
	return Shorten(Parts{
		ResourceType: "subnet",
		Project:      project,
		Environment:  environment,
		Zone:         zone,
		SubnetType:   subnetType(public),
		Suffix:       fmt.Sprintf("%0*d", width, 1+offset+index),
	}, MaxSubnetNameLength)
}

func subnetType(public bool) string {
	if public {
		return "public"
	}
	return "private"
}
