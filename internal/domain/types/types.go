// Package types contains common types used across the application
package types

// PersonInfo summarizes one enrolled person.
type PersonInfo struct {
	Name           string `json:"name"`
	EmbeddingCount int    `json:"embedding_count"`
}

// AttendanceRecord is one ledger row as exposed by the API.
type AttendanceRecord struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// Status reports the live state of the recognition pipeline.
type Status struct {
	CameraActive     bool     `json:"camera_active"`
	AttendanceActive bool     `json:"attendance_active"`
	PeopleInDatabase int      `json:"people_in_database"`
	VisibleNames     []string `json:"visible_names,omitempty"`
}

// EnrollmentFailure itemizes why one uploaded image was rejected.
type EnrollmentFailure struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// EnrollmentSummary reports the outcome of adding a person from a batch of images.
type EnrollmentSummary struct {
	Name            string              `json:"name"`
	EmbeddingsAdded int                 `json:"embeddings_added"`
	TotalEmbeddings int                 `json:"total_embeddings"`
	Failures        []EnrollmentFailure `json:"failures,omitempty"`
}
