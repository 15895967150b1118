package handlers

import "jellyarcade/internal/models"

// requiredText is a translation pair where both locales must be set.
type requiredText struct {
	TR string `json:"tr" validate:"required,max=200"`
	EN string `json:"en" validate:"required,max=200"`
}

// optionalText is a translation pair for partial updates.
type optionalText struct {
	TR string `json:"tr" validate:"max=200"`
	EN string `json:"en" validate:"max=200"`
}

type longText struct {
	TR string `json:"tr" validate:"max=5000"`
	EN string `json:"en" validate:"max=5000"`
}

type keywordsInput struct {
	TR []string `json:"tr" validate:"max=30,dive,max=50"`
	EN []string `json:"en" validate:"max=30,dive,max=50"`
}

func (t requiredText) localized() models.Localized { return models.Localized(t) }
func (t optionalText) localized() models.Localized { return models.Localized(t) }
func (t longText) localized() models.Localized     { return models.Localized(t) }
func (k keywordsInput) list() models.LocalizedList { return models.LocalizedList(k) }
