package roster

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/kozaktomas/face-attend/internal/engine"
)

// Load reads the students and encodings JSON files and joins them into
// engine identities. Malformed entries and rolls without roster records
// are skipped with a log line; the rest of the load proceeds. Identities
// come back sorted by roll so snapshot order is deterministic.
func Load(studentsPath, encodingsPath string) ([]engine.Identity, error) {
	students, err := loadStudents(studentsPath)
	if err != nil {
		return nil, err
	}
	encodings, err := loadEncodings(encodingsPath)
	if err != nil {
		return nil, err
	}
	return Join(students, encodings), nil
}

// Join pairs encodings with their roster records, skipping rolls that are
// missing from the roster or carry no encodings.
func Join(students Roster, encodings Encodings) []engine.Identity {
	rolls := make([]string, 0, len(encodings))
	for roll := range encodings {
		rolls = append(rolls, roll)
	}
	sort.Strings(rolls)

	var identities []engine.Identity
	for _, roll := range rolls {
		student, ok := students[roll]
		if !ok {
			log.Printf("roster: roll %s has encodings but no student record, skipping", roll)
			continue
		}

		vectors := encodings[roll]
		if len(vectors) == 0 {
			log.Printf("roster: roll %s has no encodings, skipping", roll)
			continue
		}

		id := engine.Identity{
			Roll: roll,
			Meta: engine.Metadata{
				Name:             student.Name,
				Role:             student.Role,
				RegistrationDate: student.RegistrationDate,
			},
		}
		for _, v := range vectors {
			id.Embeddings = append(id.Embeddings, engine.Embedding(v))
		}
		identities = append(identities, id)
	}
	return identities
}

func loadStudents(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading students file: %w", err)
	}

	// Decode per entry so one malformed record does not lose the roster.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing students file %s: %w", path, err)
	}

	students := make(Roster, len(raw))
	for roll, msg := range raw {
		var s Student
		if err := json.Unmarshal(msg, &s); err != nil {
			log.Printf("roster: malformed student record for roll %s, skipping: %v", roll, err)
			continue
		}
		students[roll] = s
	}
	return students, nil
}

func loadEncodings(path string) (Encodings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading encodings file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing encodings file %s: %w", path, err)
	}

	encodings := make(Encodings, len(raw))
	for roll, msg := range raw {
		var vectors [][]float32
		if err := json.Unmarshal(msg, &vectors); err != nil {
			log.Printf("roster: malformed encodings for roll %s, skipping: %v", roll, err)
			continue
		}
		encodings[roll] = vectors
	}
	return encodings, nil
}
