// Package constants holds cross-layer constant values.
package constants

// Environment names.
const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)

// Pub/Sub provider names.
const (
	PubSubProviderNoop   = "noop"
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Document collection names.
const (
	CollectionUsers            = "users"
	CollectionCredentials      = "credentials"
	CollectionPatientDirectory = "patient_directory"
	CollectionMemories         = "memories"
	CollectionEvents           = "events"
	CollectionNoteSessions     = "note_sessions"
	CollectionPeople           = "people"
)

// Activity event types published after content mutations.
const (
	ActivityMemoryCreated = "memory.created"
	ActivityNoteAppended  = "note.appended"
)
