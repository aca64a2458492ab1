package models

// Stats counts documents by verification state.
type Stats struct {
	Total    int `json:"total"`
	Uploaded int `json:"uploaded"`
	Verified int `json:"verified"`
	Rejected int `json:"rejected"`
}

// Summarize counts documents by status.
func Summarize(docs []*Document) Stats {
	var s Stats
	for _, d := range docs {
		s.Total++
		switch d.Status {
		case StatusUploaded:
			s.Uploaded++
		case StatusVerified:
			s.Verified++
		case StatusRejected:
			s.Rejected++
		}
	}
	return s
}
