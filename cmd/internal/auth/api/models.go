package authapi

import (
	"time"

	"taskward/cmd/identity"
)

type userResponse struct {
	ID      int64   `json:"id"`
	Login   string  `json:"login"`
	Name    string  `json:"name"`
	Surname string  `json:"surname"`
	Roles   []int16 `json:"roles"`
}

func toUserResponse(u identity.User) userResponse {
	roles := make([]int16, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = int16(r)
	}
	return userResponse{
		ID:      u.ID,
		Login:   u.Login,
		Name:    u.Name,
		Surname: u.Surname,
		Roles:   roles,
	}
}

type loginResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	LoggedAt     time.Time `json:"logged_at"`
	RefreshToken string    `json:"refresh_token"`
	Fingerprint  string    `json:"fingerprint"`
}

type logoutResponse struct {
	User   string `json:"user"`
	Status string `json:"status"`
}

type reissueResponse struct {
	Login        string `json:"login"`
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	Fingerprint  string `json:"fingerprint"`
}
