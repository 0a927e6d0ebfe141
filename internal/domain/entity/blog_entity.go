package entity

import "time"

// Blog is a user-authored post. UserID is the owner; only the owner may
// update or delete it.
type Blog struct {
	ID              string
	UserID          string
	Username        string
	Title           string
	Subtitle        string
	Content         string
	Slug            string
	ImageURL        string
	ImageObject     string // object path in the bucket when the image was uploaded by us
	Tags            []string
	ReadTimeMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnedBy reports whether userID is the blog's owner.
func (b *Blog) OwnedBy(userID string) bool {
	return userID != "" && b.UserID == userID
}

// BlogFilter narrows blog listings.
type BlogFilter struct {
	Tag    string
	UserID string
	Limit  int
	Offset int
}
