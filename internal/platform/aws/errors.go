package aws

import (
	"errors"

	"github.com/aws/smithy-go"
)

// notYetVisibleCodes are the EC2 error codes returned when a follow-up
// call races the control plane's propagation of a freshly created
// resource. These are the only errors worth retrying.
var notYetVisibleCodes = map[string]bool{
	"InvalidVpcID.NotFound":              true,
	"InvalidInternetGatewayID.NotFound":  true,
	"InvalidRouteTableID.NotFound":       true,
	"InvalidSubnetID.NotFound":           true,
	"InvalidNetworkAclID.NotFound":       true,
	"InvalidInstanceID.NotFound":         true,
	"InvalidNetworkInterfaceID.NotFound": true,
	"InvalidID":                          true,
}

// subnetQuotaCode is returned when the account's subnet limit is hit.
const subnetQuotaCode = "SubnetLimitExceeded"

// IsNotYetVisible reports whether err indicates a resource that exists
// but has not yet become visible to the API handling the call.
func IsNotYetVisible(err error) bool {
	return notYetVisibleCodes[errorCode(err)]
}

// IsQuotaExceeded reports whether err indicates the account subnet
// quota is exhausted. Quota errors are fatal to the whole run.
func IsQuotaExceeded(err error) bool {
	return errorCode(err) == subnetQuotaCode
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
