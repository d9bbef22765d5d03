package models

// PatientsSnapshot is the payload of a patients push event
type PatientsSnapshot struct {
	Patients []Patient `json:"patients"`
}

// MediaSnapshot is the payload of a media-display push event
type MediaSnapshot struct {
	Media []MediaItem `json:"media"`
}
