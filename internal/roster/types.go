// Package roster loads student rosters and their face encodings from the
// JSON files produced by the registration tooling.
package roster

// Student is one roster entry, keyed by roll number. Fields beyond the
// roll are opaque metadata the engine passes through unmodified.
type Student struct {
	Name             string `json:"name"`
	Role             string `json:"role"`
	RegistrationDate string `json:"registration_date"`
}

// Roster maps roll number to student record.
type Roster map[string]Student

// Encodings maps roll number to that student's face encodings, in capture
// order. Capture order matters: calibration samples inter-class distances
// from the first two encodings of each student.
type Encodings map[string][][]float32
