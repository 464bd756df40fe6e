package facebook

import "github.com/goliatone/go-storefront/social"

type facebookUserInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func mapProfile(info *facebookUserInfo) *social.Profile {
	if info == nil {
		return nil
	}

	return &social.Profile{
		ProviderUserID: info.ID,
		Provider:       "facebook",
		Email:          info.Email,
		// Facebook only returns emails it has confirmed.
		EmailVerified: true,
		Name:          info.Name,
		AvatarURL:     info.Picture.Data.URL,
		Raw: map[string]any{
			"id":    info.ID,
			"name":  info.Name,
			"email": info.Email,
		},
	}
}
