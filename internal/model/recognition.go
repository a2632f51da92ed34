package model

// RecognitionMatch is one identified track, anchored at the timecode whose
// audio sample produced the match.
type RecognitionMatch struct {
	TimecodeSeconds float64             `json:"timecode_seconds"`
	Title           string              `json:"title"`
	Artist          string              `json:"artist"`
	SourceLinks     map[Platform]string `json:"source_links,omitempty"`
	CoverArtURL     string              `json:"cover_art_url,omitempty"`
	ServiceURL      string              `json:"service_url,omitempty"`
}

// RecognitionReport aggregates the per-timecode recognition attempts for one
// source URL. A timecode that produced no match contributes nothing; Found is
// false only when every timecode came up empty.
type RecognitionReport struct {
	Found   bool               `json:"found"`
	Matches []RecognitionMatch `json:"matches,omitempty"`
	Message string             `json:"message,omitempty"`
}
