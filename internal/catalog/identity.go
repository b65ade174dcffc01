package catalog

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Identity is the display identity of a provider as rendered by the directory UI.
type Identity struct {
	Provider string
	Initial  string
	LogoURL  string
	HasLogo  bool
}

// MarshalJSON renders the identity as served to the UI; logo_url is null
// when no logo is known.
func (i Identity) MarshalJSON() ([]byte, error) {
	var logo *string
	if i.HasLogo {
		logo = &i.LogoURL
	}
	return json.Marshal(struct {
		Provider string  `json:"provider"`
		Initial  string  `json:"initial"`
		LogoURL  *string `json:"logo_url"`
	}{
		Provider: i.Provider,
		Initial:  i.Initial,
		LogoURL:  logo,
	})
}

// ProviderInitial returns the short display label for a provider name.
// Unknown names fall back to the upper-cased first character of the input as given.
func ProviderInitial(provider string) string {
	if provider == "" {
		return "?"
	}
	if initial, ok := providerInitials[strings.ToLower(provider)]; ok {
		return initial
	}
	r, _ := utf8.DecodeRuneInString(provider)
	return strings.ToUpper(string(r))
}

// ProviderLogo returns the absolute logo URL for a provider, or false when none is known.
func ProviderLogo(provider string) (string, bool) {
	if provider == "" {
		return "", false
	}
	filename, ok := providerLogos[strings.ToLower(provider)]
	if !ok {
		return "", false
	}
	return LogoBaseURL + filename, true
}

// Resolve bundles the initial and logo lookups for a provider name.
func Resolve(provider string) Identity {
	logo, ok := ProviderLogo(provider)
	return Identity{
		Provider: provider,
		Initial:  ProviderInitial(provider),
		LogoURL:  logo,
		HasLogo:  ok,
	}
}
