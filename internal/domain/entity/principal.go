package entity

// PrincipalKind distinguishes principals issued by the auth provider from
// principals synthesized out of a locally persisted patient pointer.
type PrincipalKind string

const (
	// PrincipalReal is a session the auth provider actually issued.
	PrincipalReal PrincipalKind = "real"
	// PrincipalSynthetic is reconstructed from the patient pointer when the
	// provider reports no session at all.
	PrincipalSynthetic PrincipalKind = "synthetic"
)

// DefaultPatientName is used when a patient pointer carries no display name.
const DefaultPatientName = "Patient"

// Principal is the acting identity as seen by the session layer. Callers
// branch on Kind rather than duck-typing the value.
type Principal struct {
	Kind        PrincipalKind
	UID         string
	Email       string
	DisplayName string
	Anonymous   bool
}

// NewRealPrincipal wraps an auth-provider session value.
func NewRealPrincipal(uid, email, displayName string, anonymous bool) *Principal {
	return &Principal{
		Kind:        PrincipalReal,
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Anonymous:   anonymous,
	}
}

// NewSyntheticPrincipal builds a non-persisted patient identity from the
// locally stored pointer. The display name falls back to DefaultPatientName.
func NewSyntheticPrincipal(ptr PatientPointer) *Principal {
	name := ptr.DisplayName
	if name == "" {
		name = DefaultPatientName
	}

	return &Principal{
		Kind:        PrincipalSynthetic,
		UID:         ptr.PatientUID,
		DisplayName: name,
		Anonymous:   true,
	}
}

// SameIdentity reports whether two principals resolve to the same identity.
// A change in identity is what forces profile subscriptions to be rebuilt.
func (p *Principal) SameIdentity(other *Principal) bool {
	if p == nil || other == nil {
		return p == other
	}

	return p.UID == other.UID && p.Kind == other.Kind && p.Anonymous == other.Anonymous
}
