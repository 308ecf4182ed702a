package user

// Profile is the part of a store account this service relies on. Points is
// the loyalty balance that bounds redemption at checkout.
type Profile struct {
	id       string
	username string
	email    string
	points   int64
}

func NewProfile(id, username, email string, points int64) *Profile {
	if points < 0 {
		points = 0
	}
	return &Profile{
		id:       id,
		username: username,
		email:    email,
		points:   points,
	}
}

func (p *Profile) ID() string       { return p.id }
func (p *Profile) Username() string { return p.username }
func (p *Profile) Email() string    { return p.email }
func (p *Profile) Points() int64    { return p.points }
