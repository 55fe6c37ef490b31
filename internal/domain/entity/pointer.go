package entity

// PatientPointer is the device-scoped patient session pointer written by the
// patient login flow. It lets a device reconstruct a patient identity without
// a full authenticated session.
type PatientPointer struct {
	PatientUID  string `json:"patientUid"`
	DisplayName string `json:"patientName"`
}
