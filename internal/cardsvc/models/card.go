package models

import "time"

// Card is a stored contact card addressed by its short code. Cards are never
// updated once written.
type Card struct {
	Code      string    `json:"code" bson:"code"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone" bson:"phone"`
	Github    string    `json:"github" bson:"github"`
	Linkedin  string    `json:"linkedin" bson:"linkedin"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// CardFields is what a submitter provides.
type CardFields struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Github   string `json:"github"`
	Linkedin string `json:"linkedin"`
}
