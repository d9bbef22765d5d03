package shared

const (
	STREAM_PATIENTS = "patients"
	STREAM_MEDIA    = "media-display"
	STREAM_SURFACE  = "surface"

	EVENT_PATIENTS_UPDATED = "patients.updated"
	EVENT_MEDIA_UPDATED    = "media.updated"
	EVENT_HEARTBEAT        = "heartbeat"
	EVENT_SURFACE_COMMAND  = "surface.command"
	EVENT_VIEW             = "view"

	PERMISSION_PATIENTS_READ   = "patients:read"
	PERMISSION_PATIENTS_WRITE  = "patients:write"
	PERMISSION_PATIENTS_DELETE = "patients:delete"
	PERMISSION_MEDIA_READ      = "media:read"
	PERMISSION_MEDIA_WRITE     = "media:write"
	PERMISSION_MEDIA_DELETE    = "media:delete"

	STORAGE_PREFIX = "/storage/"

	USER_AGENT = "Lobby/1.0 <github.com/marcus-crane/lobby>"
)
