// Package entity contains the core business objects of the project.
package entity

// Role represents the kind of profile a person has in the system.
type Role string

const (
	// RoleCaregiver indicates a caregiver account managing a patient.
	RoleCaregiver Role = "caregiver"
	// RolePatient indicates a patient record.
	RolePatient Role = "patient"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleCaregiver, RolePatient:
		return true
	default:
		return false
	}
}
