package libs

// EndpointType selects which routing style requests take to the SCIM
// service: directly against the SCIM module or through the API server proxy.
type EndpointType string

const (
	EndpointSCIM      EndpointType = "scim"
	EndpointAPIServer EndpointType = "apiserver"
)

// Resource names a SCIM resource collection exposed by the service.
type Resource string

const (
	ResourceUsers                 Resource = "users"
	ResourceGroups                Resource = "groups"
	ResourceSchemas               Resource = "schemas"
	ResourceResourceTypes         Resource = "resourceTypes"
	ResourceServiceProviderConfig Resource = "serviceProviderConfig"
)

var pathPrefixes = map[EndpointType]string{
	EndpointSCIM:      "/obscim/v2",
	EndpointAPIServer: "/ApiServer/onbase/SCIM/v2",
}

var resourceSuffixes = map[Resource]string{
	ResourceUsers:                 "/Users",
	ResourceGroups:                "/Groups",
	ResourceSchemas:               "/Schemas",
	ResourceResourceTypes:         "/ResourceTypes",
	ResourceServiceProviderConfig: "/ServiceProviderConfig",
}

// ParseEndpointType validates the raw endpoint type value. An unrecognized
// value must not silently default: a typo here would route every request to
// the wrong deployment surface.
func ParseEndpointType(raw string) (EndpointType, error) {
	switch EndpointType(raw) {
	case EndpointSCIM, EndpointAPIServer:
		return EndpointType(raw), nil
	default:
		return "", &ConfigurationError{
			Setting: "endpoint_type",
			Value:   raw,
			Reason:  `must be "scim" or "apiserver"`,
		}
	}
}

// BuildPath returns the URL path for a resource collection under the given
// routing style.
func BuildPath(resource Resource, endpointType EndpointType) (string, error) {
	prefix, ok := pathPrefixes[endpointType]
	if !ok {
		return "", &ConfigurationError{
			Setting: "endpoint_type",
			Value:   string(endpointType),
			Reason:  `must be "scim" or "apiserver"`,
		}
	}

	suffix, ok := resourceSuffixes[resource]
	if !ok {
		return "", &ConfigurationError{
			Setting: "resource",
			Value:   string(resource),
			Reason:  "unknown SCIM resource collection",
		}
	}

	return prefix + suffix, nil
}

// BuildSearchPath returns the POST .search path for a collection. Only Users
// and Groups expose .search.
func BuildSearchPath(resource Resource, endpointType EndpointType) (string, error) {
	if resource != ResourceUsers && resource != ResourceGroups {
		return "", &ConfigurationError{
			Setting: "resource",
			Value:   string(resource),
			Reason:  "only users and groups support .search",
		}
	}

	base, err := BuildPath(resource, endpointType)
	if err != nil {
		return "", err
	}

	return base + "/.search", nil
}
