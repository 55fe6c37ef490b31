package entity

// PersonTag is the denormalized person reference embedded in a memory
// document so lists can render without a join.
type PersonTag struct {
	ID           string
	DisplayName  string
	FaceThumbURL string
}

// EventTag is the denormalized event reference embedded in a memory document.
type EventTag struct {
	ID    string
	Title string
}

// Memory is a single photographed memory belonging to a patient.
type Memory struct {
	ID              string
	OwnerUID        string
	PatientUID      string
	PhotoURL        string
	PhotoPublicID   string
	PhotoHint       string
	Caption         string
	People          []PersonTag
	PeopleIDs       []string
	Keywords        []string
	Event           *EventTag
	CreatedAt       int64 // unix milliseconds
	DuplicateStatus string
}

// HasPerson reports whether the memory tags the given person.
func (m *Memory) HasPerson(personID string) bool {
	for _, p := range m.People {
		if p.ID == personID {
			return true
		}
	}
	for _, id := range m.PeopleIDs {
		if id == personID {
			return true
		}
	}

	return false
}

// MemoryFromMap decodes a memory document.
func MemoryFromMap(id string, data map[string]any) *Memory {
	m := &Memory{
		ID:              id,
		OwnerUID:        asString(data["ownerUid"]),
		PatientUID:      asString(data["patientUid"]),
		PhotoURL:        asString(data["photoUrl"]),
		PhotoPublicID:   asString(data["photoPublicId"]),
		PhotoHint:       asString(data["photoHint"]),
		Caption:         asString(data["caption"]),
		PeopleIDs:       asStringSlice(data["peopleIds"]),
		Keywords:        asStringSlice(data["keywords"]),
		CreatedAt:       asInt64(data["createdAt"]),
		DuplicateStatus: asString(data["duplicateStatus"]),
	}

	for _, tag := range asMapSlice(data["people"]) {
		m.People = append(m.People, PersonTag{
			ID:           asString(tag["id"]),
			DisplayName:  asString(tag["displayName"]),
			FaceThumbURL: asString(tag["faceThumbUrl"]),
		})
	}

	if ev := asMap(data["event"]); ev != nil {
		m.Event = &EventTag{
			ID:    asString(ev["id"]),
			Title: asString(ev["title"]),
		}
	}

	return m
}

// ToMap encodes the memory for storage.
func (m *Memory) ToMap() map[string]any {
	people := make([]any, 0, len(m.People))
	for _, p := range m.People {
		people = append(people, map[string]any{
			"id":           p.ID,
			"displayName":  p.DisplayName,
			"faceThumbUrl": p.FaceThumbURL,
		})
	}

	peopleIDs := make([]any, 0, len(m.PeopleIDs))
	for _, id := range m.PeopleIDs {
		peopleIDs = append(peopleIDs, id)
	}

	keywords := make([]any, 0, len(m.Keywords))
	for _, k := range m.Keywords {
		keywords = append(keywords, k)
	}

	doc := map[string]any{
		"ownerUid":        m.OwnerUID,
		"patientUid":      m.PatientUID,
		"photoUrl":        m.PhotoURL,
		"photoPublicId":   m.PhotoPublicID,
		"photoHint":       m.PhotoHint,
		"caption":         m.Caption,
		"people":          people,
		"peopleIds":       peopleIDs,
		"keywords":        keywords,
		"createdAt":       m.CreatedAt,
		"duplicateStatus": m.DuplicateStatus,
	}

	if m.Event != nil {
		doc["event"] = map[string]any{
			"id":    m.Event.ID,
			"title": m.Event.Title,
		}
	}

	return doc
}
