package domain

// Config is the pipeline-facing slice of the process configuration,
// read once at start and passed into constructors.
type Config struct {
	SiteName       string
	PublicOrigin   string
	InternalOrigin string
	AdminToken     string
}
