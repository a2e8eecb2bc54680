package listing

import "strings"

// Separator splits a listing line into name and version.
const Separator = "=="

// Record is one installed package from a listing.
type Record struct {
	Seq     int    `json:"seq"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Parse converts raw listing text into records.
//
// Lines are separated by "\n"; a trailing "\r" is dropped so listings captured
// on Windows parse the same way. Returns an empty (non-nil) slice for a
// listing with no records.
func Parse(text string) ([]Record, error) {
	records := []Record{}
	var bad []LineError

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		rec, reason, ok := parseLine(line)
		if !ok {
			bad = append(bad, LineError{Line: i + 1, Text: line, Reason: reason})
			continue
		}
		rec.Seq = len(records) + 1
		records = append(records, rec)
	}

	if len(bad) > 0 {
		return nil, &ParseError{Lines: bad}
	}
	return records, nil
}

func parseLine(line string) (Record, Reason, bool) {
	name, version, found := strings.Cut(line, Separator)
	switch {
	case !found:
		return Record{}, ReasonMissingSeparator, false
	case name == "":
		return Record{}, ReasonEmptyName, false
	case version == "":
		return Record{}, ReasonEmptyVersion, false
	}
	return Record{Name: name, Version: version}, "", true
}

// Format serializes records back into listing form, one newline-terminated
// line per record.
func Format(records []Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Name)
		b.WriteString(Separator)
		b.WriteString(r.Version)
		b.WriteByte('\n')
	}
	return b.String()
}
