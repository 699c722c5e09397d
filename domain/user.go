package domain

// User is the full persisted user record. The Secret field holds the encoded
// credential hash and must never leave the repository/service layers; every
// external response goes through Profile instead.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Handle   string `json:"handle"`
	Avatar   string `json:"avatar"`
	Secret   string `json:"secret"`
	Channels IDSet  `json:"channels"`
	Alive    bool   `json:"alive"`
}

// Profile is the public projection of a User. It has no credential field by
// construction, so a profile can be broadcast or returned as-is.
type Profile struct {
	ID       string   `json:"_id"`
	Username string   `json:"username"`
	Handle   string   `json:"handle"`
	Avatar   string   `json:"avatar"`
	Channels []string `json:"channels"`
	Alive    bool     `json:"alive"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Username: u.Username,
		Handle:   u.Handle,
		Avatar:   u.Avatar,
		Channels: u.Channels.Values(),
		Alive:    u.Alive,
	}
}
