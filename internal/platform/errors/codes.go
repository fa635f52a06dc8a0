package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified error.
	CodeUnknown Code = "UNKNOWN"

	// Registry errors
	CodeRoomNotFound    Code = "ROOM_NOT_FOUND"
	CodeRoomExists      Code = "ROOM_EXISTS"
	CodeRegistryCorrupt Code = "REGISTRY_CORRUPT"

	// Configuration errors
	CodeConfigInvalid Code = "CONFIG_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeStorage  Code = "STORAGE"

	// Narration collaborator errors
	CodeNarrationProtocol Code = "NARRATION_PROTOCOL"
	CodeNarrationTimeout  Code = "NARRATION_TIMEOUT"
)
