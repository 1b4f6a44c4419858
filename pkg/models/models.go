package models

// Entry is one downloadable map from a profile listing.
// Name is already sanitized and has the form "<game> - <console> - <map>".
// Names are not guaranteed to be unique within a listing.
type Entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Manifest is the parsed contributions page of a profile
type Manifest struct {
	ProfileName string  `json:"profile_name"`
	ProfileURL  string  `json:"profile_url"`
	MapsURL     string  `json:"maps_url"`
	Entries     []Entry `json:"entries"`
}

// Count returns the number of entries in the listing
func (m *Manifest) Count() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}
