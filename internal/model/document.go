package model

// Document is a generated or refined README. The server never stores it; the
// client holds it between refinement turns and sends it back whole.
type Document struct {
	Readme       string `json:"readme"`
	RepoFullName string `json:"repoFullName,omitempty"`
}
