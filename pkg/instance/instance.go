package instance

import "os"

// IDEnv overrides the detected instance id.
const IDEnv = "INVENTORY_INSTANCE_ID"

const fallbackID = "worker-0"

// GetID returns the process identifier used as the owner value of
// distributed locks: IDEnv when set, then the host name.
func GetID() string {
	if id := os.Getenv(IDEnv); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
