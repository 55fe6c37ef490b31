package handler

import (
	"memorylane/internal/domain/entity"
	"memorylane/internal/live"
	"memorylane/internal/usecase"
)

// profileResponse is the wire form of a profile document.
type profileResponse struct {
	UID         string `json:"uid"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	PatientUID  string `json:"patientUid,omitempty"`
}

func toProfileResponse(p *entity.Profile) *profileResponse {
	if p == nil {
		return nil
	}

	return &profileResponse{
		UID:         p.UID,
		Role:        p.Role.String(),
		DisplayName: p.DisplayName,
		Email:       p.Email,
		CreatedAt:   p.CreatedAt,
		PatientUID:  p.PatientUID,
	}
}

type personTagResponse struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	FaceThumbURL string `json:"faceThumbUrl,omitempty"`
}

type eventTagResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// memoryResponse is the wire form of a memory document.
type memoryResponse struct {
	ID              string              `json:"id"`
	OwnerUID        string              `json:"ownerUid"`
	PatientUID      string              `json:"patientUid"`
	PhotoURL        string              `json:"photoUrl"`
	PhotoHint       string              `json:"photoHint,omitempty"`
	Caption         string              `json:"caption"`
	People          []personTagResponse `json:"people,omitempty"`
	Keywords        []string            `json:"keywords,omitempty"`
	Event           *eventTagResponse   `json:"event,omitempty"`
	CreatedAt       int64               `json:"createdAt"`
	DuplicateStatus string              `json:"duplicateStatus"`
}

func toMemoryResponse(m *entity.Memory) *memoryResponse {
	if m == nil {
		return nil
	}

	r := &memoryResponse{
		ID:              m.ID,
		OwnerUID:        m.OwnerUID,
		PatientUID:      m.PatientUID,
		PhotoURL:        m.PhotoURL,
		PhotoHint:       m.PhotoHint,
		Caption:         m.Caption,
		Keywords:        m.Keywords,
		CreatedAt:       m.CreatedAt,
		DuplicateStatus: m.DuplicateStatus,
	}
	for _, p := range m.People {
		r.People = append(r.People, personTagResponse{
			ID:           p.ID,
			DisplayName:  p.DisplayName,
			FaceThumbURL: p.FaceThumbURL,
		})
	}
	if m.Event != nil {
		r.Event = &eventTagResponse{ID: m.Event.ID, Title: m.Event.Title}
	}

	return r
}

func toMemoryResponses(memories []*entity.Memory) []*memoryResponse {
	out := make([]*memoryResponse, 0, len(memories))
	for _, m := range memories {
		out = append(out, toMemoryResponse(m))
	}

	return out
}

type eventImageResponse struct {
	URL string `json:"url"`
}

// eventResponse is the wire form of a life event document.
type eventResponse struct {
	ID            string               `json:"id"`
	PatientUID    string               `json:"patientUid"`
	Title         string               `json:"title"`
	Date          int64                `json:"date"`
	Description   string               `json:"description,omitempty"`
	Images        []eventImageResponse `json:"images,omitempty"`
	CoverPhotoURL string               `json:"coverPhotoUrl,omitempty"`
	MemoryCount   int64                `json:"memoryCount"`
	CreatedAt     int64                `json:"createdAt"`
}

func toEventResponse(e *entity.Event) *eventResponse {
	if e == nil {
		return nil
	}

	r := &eventResponse{
		ID:            e.ID,
		PatientUID:    e.PatientUID,
		Title:         e.Title,
		Date:          e.Date,
		Description:   e.Description,
		CoverPhotoURL: e.CoverPhotoURL,
		MemoryCount:   e.MemoryCount,
		CreatedAt:     e.CreatedAt,
	}
	for _, img := range e.Images {
		r.Images = append(r.Images, eventImageResponse{URL: img.URL})
	}

	return r
}

func toEventResponses(events []*entity.Event) []*eventResponse {
	out := make([]*eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}

	return out
}

type noteResponse struct {
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

// noteSessionResponse is the wire form of a note session document.
type noteSessionResponse struct {
	ID          string         `json:"id"`
	PatientUID  string         `json:"patientUid"`
	Title       string         `json:"title"`
	Notes       []noteResponse `json:"notes"`
	SummaryText string         `json:"summaryText"`
	UpdatedAt   int64          `json:"updatedAt"`
}

func toNoteSessionResponse(s *entity.NoteSession) *noteSessionResponse {
	if s == nil {
		return nil
	}

	r := &noteSessionResponse{
		ID:          s.ID,
		PatientUID:  s.PatientUID,
		Title:       s.Title,
		Notes:       []noteResponse{},
		SummaryText: s.SummaryText,
		UpdatedAt:   s.UpdatedAt,
	}
	for _, n := range s.Notes {
		r.Notes = append(r.Notes, noteResponse{Text: n.Text, CreatedAt: n.CreatedAt})
	}

	return r
}

// personResponse is the wire form of a person document.
type personResponse struct {
	ID           string `json:"id"`
	PatientUID   string `json:"patientUid"`
	DisplayName  string `json:"displayName"`
	FaceThumbURL string `json:"faceThumbUrl,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
}

func toPersonResponse(p *entity.Person) *personResponse {
	if p == nil {
		return nil
	}

	return &personResponse{
		ID:           p.ID,
		PatientUID:   p.PatientUID,
		DisplayName:  p.DisplayName,
		FaceThumbURL: p.FaceThumbURL,
		CreatedAt:    p.CreatedAt,
	}
}

func toPersonResponses(people []*entity.Person) []*personResponse {
	out := make([]*personResponse, 0, len(people))
	for _, p := range people {
		out = append(out, toPersonResponse(p))
	}

	return out
}

// pointerResponse is the wire form of the device-local patient pointer.
type pointerResponse struct {
	PatientUID  string `json:"patientUid"`
	PatientName string `json:"patientName,omitempty"`
}

func toPointerResponse(ptr *entity.PatientPointer) *pointerResponse {
	if ptr == nil {
		return nil
	}

	return &pointerResponse{PatientUID: ptr.PatientUID, PatientName: ptr.DisplayName}
}

// principalResponse is the wire form of the acting identity.
type principalResponse struct {
	Kind        string `json:"kind"`
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Anonymous   bool   `json:"anonymous"`
}

func toPrincipalResponse(p *entity.Principal) *principalResponse {
	if p == nil {
		return nil
	}

	return &principalResponse{
		Kind:        string(p.Kind),
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Anonymous:   p.Anonymous,
	}
}

// sessionResponse is the wire form of a resolved session snapshot.
type sessionResponse struct {
	Status    string             `json:"status"`
	Loading   bool               `json:"loading"`
	Principal *principalResponse `json:"principal,omitempty"`
	Profile   *profileResponse   `json:"profile,omitempty"`
	Pointer   *pointerResponse   `json:"pointer,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func toSessionResponse(snap usecase.SessionSnapshot) *sessionResponse {
	r := &sessionResponse{
		Status:    string(snap.Status),
		Loading:   snap.Loading,
		Principal: toPrincipalResponse(snap.Principal),
		Profile:   toProfileResponse(snap.Profile),
		Pointer:   toPointerResponse(snap.Pointer),
	}
	if snap.Err != nil {
		r.Error = snap.Err.Error()
	}

	return r
}

// listStatePayload is one SSE frame of a live collection binding.
type listStatePayload[T any] struct {
	Items   []T    `json:"items"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

func toListPayload[E any, R any](state live.ListState[E], convert func(*E) R) listStatePayload[R] {
	p := listStatePayload[R]{Items: make([]R, 0, len(state.Items)), Loading: state.Loading}
	for _, item := range state.Items {
		p.Items = append(p.Items, convert(item))
	}
	if state.Err != nil {
		p.Error = state.Err.Error()
	}

	return p
}
