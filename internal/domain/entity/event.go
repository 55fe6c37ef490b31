package entity

// EventImage is a photo attached to a life event, tracked with the image
// host's public ID so it can be deleted along with the event.
type EventImage struct {
	URL      string
	PublicID string
}

// Event is a significant life event recorded for a patient.
type Event struct {
	ID            string
	PatientUID    string
	Title         string
	Date          int64 // unix milliseconds
	Description   string
	Images        []EventImage
	CoverPhotoURL string
	MemoryCount   int64
	CreatedAt     int64 // unix milliseconds
}

// EventFromMap decodes an event document.
func EventFromMap(id string, data map[string]any) *Event {
	e := &Event{
		ID:            id,
		PatientUID:    asString(data["patientUid"]),
		Title:         asString(data["title"]),
		Date:          asInt64(data["date"]),
		Description:   asString(data["description"]),
		CoverPhotoURL: asString(data["coverPhotoUrl"]),
		MemoryCount:   asInt64(data["memoryCount"]),
		CreatedAt:     asInt64(data["createdAt"]),
	}

	for _, img := range asMapSlice(data["images"]) {
		e.Images = append(e.Images, EventImage{
			URL:      asString(img["url"]),
			PublicID: asString(img["publicId"]),
		})
	}

	return e
}

// ToMap encodes the event for storage.
func (e *Event) ToMap() map[string]any {
	images := make([]any, 0, len(e.Images))
	for _, img := range e.Images {
		images = append(images, map[string]any{
			"url":      img.URL,
			"publicId": img.PublicID,
		})
	}

	return map[string]any{
		"patientUid":    e.PatientUID,
		"title":         e.Title,
		"date":          e.Date,
		"description":   e.Description,
		"images":        images,
		"coverPhotoUrl": e.CoverPhotoURL,
		"memoryCount":   e.MemoryCount,
		"createdAt":     e.CreatedAt,
	}
}
