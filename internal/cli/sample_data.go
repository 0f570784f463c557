package cli

import (
	"time"

	"spectrum-directory-service/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// sampleInstruments provides demo screening content; production loads
// instruments from Postgres instead.
func sampleInstruments() map[string]domain.Instrument {
	yesNo := []domain.Option{
		{Value: 1, Label: "Yes"},
		{Value: 0, Label: "No"},
	}
	// Items where the concerning answer is "No" flip the weights.
	noYes := []domain.Option{
		{Value: 0, Label: "Yes"},
		{Value: 1, Label: "No"},
	}

	return map[string]domain.Instrument{
		"cast-demo": {
			ID:        "cast-demo",
			Name:      "Childhood Screening Questionnaire (demo)",
			Threshold: 4,
			Questions: []domain.Question{
				{Index: 1, Text: "Does your child join in playing games with other children easily?", Options: noYes},
				{Index: 2, Text: "Does your child come up to you spontaneously for a chat?", Options: noYes},
				{Index: 3, Text: "Does your child prefer imaginative activities such as play-acting?", Options: noYes},
				{Index: 4, Text: "Does your child find it hard to make eye contact during conversation?", Options: yesNo},
				{Index: 5, Text: "Does your child have an unusually strong interest in a narrow topic?", Options: yesNo},
				{Index: 6, Text: "Does your child get upset by small changes in routine?", Options: yesNo},
				{Index: 7, Text: "Does your child understand jokes and figures of speech?", Options: noYes},
				{Index: 8, Text: "Does your child repeat words or phrases out of context?", Options: yesNo},
			},
		},
	}
}

// sampleProviders seeds the in-memory directory for no-database runs.
func sampleProviders() []domain.Provider {
	now := time.Now()
	return []domain.Provider{
		{
			ID:           "harbor-aba",
			Name:         "Harbor Behavioral Services",
			Specialty:    "ABA Therapy",
			City:         "Portland",
			Address:      "1200 SE Harbor Way",
			Phone:        "503-555-0142",
			Website:      "https://harbor-aba.example.com",
			Description:  "Center-based and in-home applied behavior analysis for ages 2-12.",
			Email:        "contact@harbor-aba.example.com",
			PasswordHash: demoHash("harbor-demo-password"),
			UpdatedAt:    now,
		},
		{
			ID:           "bridgetown-speech",
			Name:         "Bridgetown Speech & Language",
			Specialty:    "Speech Therapy",
			City:         "Portland",
			Address:      "88 NW Lovejoy St",
			Phone:        "503-555-0179",
			Website:      "https://bridgetown-speech.example.com",
			Description:  "Pediatric speech-language pathology with AAC support.",
			Email:        "hello@bridgetown-speech.example.com",
			PasswordHash: demoHash("bridgetown-demo-password"),
			UpdatedAt:    now,
		},
		{
			ID:           "cascade-ot",
			Name:         "Cascade Occupational Therapy",
			Specialty:    "Occupational Therapy",
			City:         "Salem",
			Address:      "410 Commercial St NE",
			Phone:        "503-555-0114",
			Website:      "https://cascade-ot.example.com",
			Description:  "Sensory integration and daily living skills programs.",
			Email:        "intake@cascade-ot.example.com",
			PasswordHash: demoHash("cascade-demo-password"),
			UpdatedAt:    now,
		},
	}
}

func demoHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return ""
	}
	return string(hash)
}
