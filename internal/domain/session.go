package domain

// Session carries the ambient identity and location state attached to outgoing requests.
// It is a value type: callers own its lifecycle and hand copies to the fetcher.
type Session struct {
	SessionID        string
	Latitude         float64
	Longitude        float64
	CorrectedAzimuth float64
	IsAuthor         bool
	Version          int
	AuthorKey        string
	DeveloperKey     string
	// AugmentsURL is the manifest URL that receives author/developer credentials.
	AugmentsURL string
}

// WithLocation returns a copy of the session positioned at the given coordinates.
func (s Session) WithLocation(lat, lon, azimuth float64) Session {
	s.Latitude = lat
	s.Longitude = lon
	s.CorrectedAzimuth = azimuth
	return s
}
