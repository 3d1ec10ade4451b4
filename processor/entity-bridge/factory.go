package entitybridge

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// ComponentName is the factory name the bridge registers under.
const ComponentName = componentName

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the entity-bridge processor with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        componentName,
		Factory:     NewComponent,
		Schema:      entityBridgeSchema,
		Type:        "processor",
		Protocol:    "simulation",
		Domain:      "entities",
		Description: "Request/reply service spawning, moving and deleting simulated entities",
		Version:     "1.0.0",
	})
}
