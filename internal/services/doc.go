// Package services holds the error taxonomy and context plumbing shared by
// the remote-capability clients and the workflow stages.
package services
