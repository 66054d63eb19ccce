// Package testbed identifies the flow document service
package testbed

const (
	// Name is the service name reported in logs and health responses
	Name = "flow-api"

	// Version is the service version
	Version = "1.0.0"
)
