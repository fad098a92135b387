package core

import "strings"

// Environment represents the deployment environment of the service.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// String returns the string representation of the environment.
func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment corresponds to production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// Verbose reports whether debug level output is expected by default.
func (e Environment) Verbose() bool {
	return e == Development || e == Testing
}

// Decode implements envconfig.Decoder so Environment can be bound directly
// from ENVIRONMENT.
func (e *Environment) Decode(value string) error {
	*e = ParseEnvironment(value)
	return nil
}

// ParseEnvironment normalises the provided value into one of the known environments.
// Short aliases (prod, stage, test, dev) are accepted. Unknown values fall back
// to Development so the service can still start with sensible defaults.
func ParseEnvironment(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
