package models

// DirectoryUser is an entry from the user/team directory.
type DirectoryUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Team  string `json:"team"`
}

// Contact is a (display name, email) pair resolved from the directory.
// Contacts are looked up per resolution and never cached across tickets.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
