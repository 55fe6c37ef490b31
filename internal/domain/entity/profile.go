package entity

import "time"

// Profile is the application-level record about a user or patient, keyed
// separately from the auth provider's principal. Caregiver profiles may point
// at the patient record they manage via PatientUID.
type Profile struct {
	UID         string
	Role        Role
	DisplayName string
	Email       string
	CreatedAt   int64 // unix milliseconds
	PatientUID  string
}

// EffectivePatientUID returns the patient scope for data queries. A patient
// profile always scopes to itself, even when the stored document omits the
// patientUid field.
func (p *Profile) EffectivePatientUID() string {
	if p.Role == RolePatient && p.PatientUID == "" {
		return p.UID
	}

	return p.PatientUID
}

// SyntheticProfile derives a patient profile purely from the local pointer,
// without any store read.
func SyntheticProfile(ptr PatientPointer) *Profile {
	name := ptr.DisplayName
	if name == "" {
		name = DefaultPatientName
	}

	return &Profile{
		UID:         ptr.PatientUID,
		Role:        RolePatient,
		DisplayName: name,
		CreatedAt:   time.Now().UnixMilli(),
		PatientUID:  ptr.PatientUID,
	}
}

// ProfileFromMap decodes a profile document. The uid argument is the document
// ID and wins over any uid field stored in the document body.
func ProfileFromMap(uid string, data map[string]any) *Profile {
	return &Profile{
		UID:         uid,
		Role:        Role(asString(data["role"])),
		DisplayName: asString(data["displayName"]),
		Email:       asString(data["email"]),
		CreatedAt:   asInt64(data["createdAt"]),
		PatientUID:  asString(data["patientUid"]),
	}
}

// ToMap encodes the profile for storage. The patientUid field is written only
// when set, matching the document shape read back by ProfileFromMap.
func (p *Profile) ToMap() map[string]any {
	doc := map[string]any{
		"uid":         p.UID,
		"role":        p.Role.String(),
		"displayName": p.DisplayName,
		"email":       p.Email,
		"createdAt":   p.CreatedAt,
	}
	if p.PatientUID != "" {
		doc["patientUid"] = p.PatientUID
	}

	return doc
}
