package models

// Claims is the bearer token accepted by the API when auth is enabled.
type Claims struct {
	Issuer    string `json:"iss,omitempty"`
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
