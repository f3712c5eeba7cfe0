package settings

import "github.com/ignite/commerce-tracker/internal/domain"

const (
	// TokenKey is the host settings key holding the project token.
	TokenKey = "edd_mixpanel_api_key"
	// HeadingKey identifies the section heading on the settings page.
	HeadingKey = "edd_mixpanel_heading"
)

// Fields returns existing with the tracker's heading and token input appended.
// The input slice is never modified.
func Fields(existing []domain.SettingField) []domain.SettingField {
	out := make([]domain.SettingField, 0, len(existing)+2)
	out = append(out, existing...)
	return append(out,
		domain.SettingField{
			ID:   HeadingKey,
			Name: "<strong>Mixpanel</strong>",
			Desc: "",
			Type: "header",
			Size: "regular",
		},
		domain.SettingField{
			ID:   TokenKey,
			Name: "Project Token",
			Desc: "Enter the Token for the Mixpanel Project you want to track data for.",
			Type: "text",
			Size: "regular",
		},
	)
}
