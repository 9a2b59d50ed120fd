package entities

import "time"

type User struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Limit           int            `json:"limit"`
	Premium         bool           `json:"premium"`
	Banned          bool           `json:"banned"`
	LastInteraction time.Time      `json:"last_interaction"`
	CustomData      map[string]any `json:"custom_data"`
}
