// Package apienvelope defines the SystemMessages request/response sum
// type: the shape an HTTP router decodes into before handing it to
// internal/orchestrator.Handle. Rendered as a Kind-tagged Go struct with
// typed payload fields, the common Go idiom for a Rust enum of
// variants (the teacher's pkg/events.EventType is the same string-tag
// union shape, one level simpler).
package apienvelope

// Kind tags which variant of SystemMessage is populated.
type Kind string

const (
	KindOrchestrator Kind = "orchestrator"
	KindStrategic    Kind = "strategic"
	KindTactical     Kind = "tactical"
	KindSupervisor   Kind = "supervisor"
	KindOperational  Kind = "operational"
)

// OrchestratorOp enumerates the orchestrator-level operations that do not
// belong to any single tier.
type OrchestratorOp string

const (
	OpExport      OrchestratorOp = "export"
	OpSpawnAsset  OrchestratorOp = "spawn_asset"
	OpDespawnAsset OrchestratorOp = "despawn_asset"
)

// OrchestratorRequest carries an asset-scoped orchestrator operation.
type OrchestratorRequest struct {
	Op    OrchestratorOp
	Asset string
}

// StrategicMsgKind enumerates the strategic tier's request variants.
type StrategicMsgKind string

const (
	StrategicStatus              StrategicMsgKind = "status"
	StrategicScheduling          StrategicMsgKind = "scheduling"
	StrategicResources           StrategicMsgKind = "resources"
	StrategicPeriods             StrategicMsgKind = "periods"
	StrategicSchedulingEnvironment StrategicMsgKind = "scheduling_environment"
)

// StrategicRequest is a request addressed to one asset's strategic actor.
type StrategicRequest struct {
	Asset string
	Msg   StrategicMsgKind
}

// TacticalMsgKind enumerates the tactical tier's request variants.
type TacticalMsgKind string

const (
	TacticalStatus     TacticalMsgKind = "status"
	TacticalScheduling TacticalMsgKind = "scheduling"
	TacticalResource   TacticalMsgKind = "resource"
	TacticalTime       TacticalMsgKind = "time"
	TacticalUpdate     TacticalMsgKind = "update"
)

// TacticalRequest is a request addressed to one asset's tactical actor.
// UpdateWorkOrder is only populated when Msg == TacticalUpdate.
type TacticalRequest struct {
	Asset           string
	Msg             TacticalMsgKind
	UpdateWorkOrder uint64
}

// SupervisorMsgKind enumerates the supervisor tier's request variants.
type SupervisorMsgKind string

const (
	SupervisorStatus     SupervisorMsgKind = "status"
	SupervisorAssignment SupervisorMsgKind = "assignment"
)

// SupervisorRequest is a request addressed to one asset's supervisor
// actor. ID names the supervisor instance when an asset runs more than
// one (see actor_specification's `number_of_supervisor_periods`).
type SupervisorRequest struct {
	Asset string
	ID    string
	Msg   SupervisorMsgKind
}

// OperationalReqKind enumerates the operational tier's request variants.
type OperationalReqKind string

const (
	OperationalGetIDs    OperationalReqKind = "get_ids"
	OperationalForAgent  OperationalReqKind = "for_agent"
	OperationalAllStatus OperationalReqKind = "all_status"
)

// OperationalRequest is a request addressed to one asset's operational
// actors. ID and Msg are only populated when Kind == OperationalForAgent.
type OperationalRequest struct {
	Kind  OperationalReqKind
	Asset string
	ID    string
	Msg   string
}

// SystemMessage is the request envelope decoded from the wire, rendering
// the SystemMessages sum type. Exactly one of the tier-specific fields is
// populated, selected by Kind.
type SystemMessage struct {
	Kind         Kind
	Orchestrator *OrchestratorRequest
	Strategic    *StrategicRequest
	Tactical     *TacticalRequest
	Supervisor   *SupervisorRequest
	Operational  *OperationalRequest
}

// SystemResponse mirrors the request variant and always carries the
// asset id the request targeted.
type SystemResponse struct {
	Kind  Kind
	Asset string
	Value any
}
