package models

// ExternalIdentity is what the identity provider asserts about a signed-in person
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}
