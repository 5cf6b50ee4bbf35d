package catalog

var programDefinitions = []ProgramDefinition{
	{
		ID:              "mind-visualisierung",
		Slug:            "visualisierungstraining",
		Code:            "MV1",
		Name:            "Visualisierungstraining",
		Summary:         "Visual Library mit Fotos, Checkboxes und täglicher State-Priming Reflexion.",
		Category:        "mind",
		Frequency:       "daily",
		DurationMinutes: 10,
		Mode:            "flow",
		Units: []ProgramUnit{
			{
				ID:    "mv1-gallery",
				Title: "Visual Cards",
				Order: 1,
				Exercises: []Exercise{
					{ID: "mv1-gallery-check", Label: "Visual Cards bestätigt", Type: "checkbox", XPValue: 200},
					{ID: "mv1-reflection", Label: "Gefühl nach dem Priming beschreiben", Type: "text", XPValue: 200},
				},
			},
		},
	},
	{
		ID:              "mind-smart-goals",
		Slug:            "ziele-smart",
		Code:            "MG1",
		Name:            "SMART Ziele",
		Summary:         "Alle Mind-Ziele anzeigen, täglich abhaken, Fortschritt aktualisieren und Selbst-Check hinterlegen.",
		Category:        "mind",
		Frequency:       "daily",
		DurationMinutes: 12,
		Mode:            "flow",
		Units: []ProgramUnit{
			{
				ID:    "mg1-review",
				Title: "Ziel Review",
				Order: 1,
				Exercises: []Exercise{
					{ID: "mg1-goal-progress", Label: "Fortschritt dokumentiert", Type: "checkbox", XPValue: 250},
					{ID: "mg1-self-check", Label: "Selbsteinschätzung notiert", Type: "text", XPValue: 250},
				},
			},
		},
	},
	{
		ID:              "mind-brain-training",
		Slug:            "brain-training",
		Code:            "MBT",
		Name:            "Brain Training Gym",
		Summary:         "Kurze Mind-Gym Übungen, Difficulty Ratings und täglicher Durchführungs-Tracker.",
		Category:        "mind",
		Frequency:       "daily",
		DurationMinutes: 15,
		Mode:            "flow",
		Units: []ProgramUnit{
			{
				ID:    "mbt-session",
				Title: "Training Session",
				Order: 1,
				Exercises: []Exercise{
					{ID: "mbt-exercise-done", Label: "Übung abgeschlossen", Type: "checkbox", XPValue: 300},
					{ID: "mbt-difficulty", Label: "Schwierigkeit bewertet", Type: "rating", XPValue: 150},
				},
			},
		},
	},
	{
		ID:              "body-morning-routine",
		Slug:            "morgenroutine",
		Code:            "BM1",
		Name:            "Morgenroutine",
		Summary:         "Mobility, Atmung und Aktivierung direkt nach dem Aufstehen.",
		Category:        "body",
		Frequency:       "daily",
		DurationMinutes: 20,
		Mode:            "single",
		Units: []ProgramUnit{
			{
				ID:    "bm1-mobility",
				Title: "Mobility Block",
				Order: 1,
				Exercises: []Exercise{
					{ID: "bm1-stretch", Label: "Stretching durchgezogen", Type: "checkbox", XPValue: 150},
					{ID: "bm1-breathing", Label: "Atemübung abgeschlossen", Type: "checkbox", XPValue: 100},
				},
			},
			{
				ID:    "bm1-activation",
				Title: "Aktivierung",
				Order: 2,
				Exercises: []Exercise{
					{ID: "bm1-workout", Label: "Kurz-Workout beendet", Type: "checkbox", XPValue: 150},
				},
			},
		},
	},
	{
		ID:              "environment-household",
		Slug:            "haushalt",
		Code:            "EH1",
		Name:            "Haushalt Cards",
		Summary:         "Tägliche Haushalts-Karten ziehen und erledigen.",
		Category:        "environment",
		Frequency:       "daily",
		DurationMinutes: 30,
		Mode:            "single",
		Units: []ProgramUnit{
			{
				ID:    "eh1-cards",
				Title: "Karten des Tages",
				Order: 1,
				Exercises: []Exercise{
					{ID: "eh1-card-done", Label: "Karte erledigt", Type: "checkbox", XPValue: 200},
					{ID: "eh1-note", Label: "Notiz zum Ergebnis", Type: "text", XPValue: 100},
				},
			},
		},
	},
}
