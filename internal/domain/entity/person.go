package entity

// Person is someone who appears in a patient's memories.
type Person struct {
	ID           string
	PatientUID   string
	DisplayName  string
	FaceThumbURL string
	CreatedAt    int64 // unix milliseconds
}

// Tag returns the denormalized reference embedded into memory documents.
func (p *Person) Tag() PersonTag {
	return PersonTag{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		FaceThumbURL: p.FaceThumbURL,
	}
}

// PersonFromMap decodes a person document.
func PersonFromMap(id string, data map[string]any) *Person {
	return &Person{
		ID:           id,
		PatientUID:   asString(data["patientUid"]),
		DisplayName:  asString(data["displayName"]),
		FaceThumbURL: asString(data["faceThumbUrl"]),
		CreatedAt:    asInt64(data["createdAt"]),
	}
}

// ToMap encodes the person for storage.
func (p *Person) ToMap() map[string]any {
	return map[string]any{
		"patientUid":   p.PatientUID,
		"displayName":  p.DisplayName,
		"faceThumbUrl": p.FaceThumbURL,
		"createdAt":    p.CreatedAt,
	}
}
