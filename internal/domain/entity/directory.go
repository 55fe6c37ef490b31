package entity

// DirectoryEntry is the public patient-directory record used by the patient
// login flow to resolve an access ID into the patient's uid without exposing
// profile data. The document ID is the access ID.
type DirectoryEntry struct {
	AccessID    string
	UID         string
	DisplayName string
}

// DirectoryEntryFromMap decodes a patient directory document.
func DirectoryEntryFromMap(id string, data map[string]any) *DirectoryEntry {
	return &DirectoryEntry{
		AccessID:    id,
		UID:         asString(data["uid"]),
		DisplayName: asString(data["displayName"]),
	}
}

// ToMap encodes the directory entry for storage.
func (d *DirectoryEntry) ToMap() map[string]any {
	return map[string]any{
		"uid":         d.UID,
		"displayName": d.DisplayName,
	}
}
