// Package evidence defines the audit record that binds a capability to the
// moment of its satisfaction, plus the external probe interface that
// produces such records. The core (pkg/graph, pkg/resolver, pkg/session,
// pkg/gate) treats CapabilityEvidence as opaque audit data; it never
// inspects EvidenceType or EvidencePath beyond storing and replaying them.
package evidence

import "time"

// Type is the tagged-union discriminant for how a capability was verified.
type Type string

const (
	TypeFileExists     Type = "file_exists"
	TypeMarkerFound    Type = "marker_found"
	TypeCommandSuccess Type = "command_success"
	TypeManual         Type = "manual"
)

// CapabilityEvidence is the audit record for one satisfied capability.
type CapabilityEvidence struct {
	Capability   string    `json:"capability"`
	SatisfiedAt  time.Time `json:"satisfied_at"`
	SatisfiedBy  string    `json:"satisfied_by"`
	EvidenceType Type      `json:"evidence_type"`
	EvidencePath string    `json:"evidence_path,omitempty"`
}
