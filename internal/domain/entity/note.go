package entity

// Note is a single fragmented note inside a note session.
type Note struct {
	Text      string
	CreatedAt int64 // unix milliseconds
}

// NoteSession groups a patient's fragmented notes together with the
// reconstructed summary text.
type NoteSession struct {
	ID          string
	PatientUID  string
	Title       string
	Notes       []Note
	SummaryText string
	UpdatedAt   int64 // unix milliseconds
}

// CombinedText joins all note fragments for summarization.
func (s *NoteSession) CombinedText() string {
	var combined string
	for i, n := range s.Notes {
		if i > 0 {
			combined += " "
		}
		combined += n.Text
	}

	return combined
}

// NoteSessionFromMap decodes a note session document.
func NoteSessionFromMap(id string, data map[string]any) *NoteSession {
	s := &NoteSession{
		ID:          id,
		PatientUID:  asString(data["patientUid"]),
		Title:       asString(data["title"]),
		SummaryText: asString(data["summaryText"]),
		UpdatedAt:   asInt64(data["updatedAt"]),
	}

	for _, n := range asMapSlice(data["notes"]) {
		s.Notes = append(s.Notes, Note{
			Text:      asString(n["text"]),
			CreatedAt: asInt64(n["createdAt"]),
		})
	}

	return s
}

// ToMap encodes the note session for storage.
func (s *NoteSession) ToMap() map[string]any {
	notes := make([]any, 0, len(s.Notes))
	for _, n := range s.Notes {
		notes = append(notes, map[string]any{
			"text":      n.Text,
			"createdAt": n.CreatedAt,
		})
	}

	return map[string]any{
		"patientUid":  s.PatientUID,
		"title":       s.Title,
		"notes":       notes,
		"summaryText": s.SummaryText,
		"updatedAt":   s.UpdatedAt,
	}
}
