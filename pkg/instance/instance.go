// Package instance identifies the running worker replica in logs.
package instance

import "os"

// GetID returns the replica identifier. Deployments set WORKER_ID; local
// runs fall back to the hostname.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
