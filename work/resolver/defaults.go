package resolver

// DefaultTable returns the built-in channel catalogue used when no SQLite
// catalogue file is configured. The ids, ordering and logos mirror the
// channel line-up the service was originally deployed with; operators with
// different line-ups ship their own catalogue database instead.
func DefaultTable() *Table {
	channels := []ChannelInfo{
		{ID: "star sports 1", DisplayOrder: 1, Logo: "https://static.epg.best/in/StarSports1.in.png", Allowed: true},
		{ID: "star sports 2", DisplayOrder: 2, Logo: "https://static.epg.best/in/StarSports2.in.png", Allowed: true},
		{ID: "star sports select 1", DisplayOrder: 3, Allowed: true},
		{ID: "sky sports cricket", DisplayOrder: 4, Logo: "https://static.epg.best/uk/SkySportsCricket.uk.png", Allowed: true},
		{ID: "sky sports main event", DisplayOrder: 5, Allowed: true},
		{ID: "willow cricket", DisplayOrder: 6, Logo: "https://static.epg.best/us/Willow.us.png", Allowed: true},
		{ID: "a sports", DisplayOrder: 7, Allowed: true},
		{ID: "ptv sports", DisplayOrder: 8, Logo: "https://static.epg.best/pk/PTVSports.pk.png", Allowed: true},
		{ID: "ten sports", DisplayOrder: 9, Allowed: true},
		{ID: "geo super", DisplayOrder: 10, Allowed: true},
		{ID: "the papare", DisplayOrder: 11, Allowed: true},
		{ID: "sony sports ten 1", DisplayOrder: 12, Allowed: true},
		{ID: "sony sports ten 2", DisplayOrder: 13, Allowed: true},
		{ID: "sony sports ten 5", DisplayOrder: 14, Allowed: true},
		{ID: "supersport cricket", DisplayOrder: 15, Allowed: true},
		{ID: "fox cricket", DisplayOrder: 16, Allowed: true},
		{ID: "astro cricket", DisplayOrder: 17, Allowed: true},
		{ID: "espn", DisplayOrder: 18, Allowed: true},
		{ID: "tnt sports 1", DisplayOrder: 19, Allowed: true},
		{ID: "bein sports 1", DisplayOrder: 20, Allowed: true},
	}

	aliases := map[string]string{
		"star sports 1 hd":        "star sports 1",
		"star sports 1 hindi":     "star sports 1",
		"star sports hd1":         "star sports 1",
		"star sports 2 hd":        "star sports 2",
		"star sports select 1 hd": "star sports select 1",
		"sky sports cricket hd":   "sky sports cricket",
		"sky sport cricket":       "sky sports cricket",
		"willow":                  "willow cricket",
		"willow hd":               "willow cricket",
		"a sports hd":             "a sports",
		"asports":                 "a sports",
		"ptv sports hd":           "ptv sports",
		"ten sports hd":           "ten sports",
		"geo super hd":            "geo super",
		"papare":                  "the papare",
		"papare tv":               "the papare",
		"sony ten 1":              "sony sports ten 1",
		"sony ten 2":              "sony sports ten 2",
		"sony ten 5":              "sony sports ten 5",
		"ss cricket":              "supersport cricket",
		"fox cricket 501":         "fox cricket",
		"espn hd":                 "espn",
		"tnt sports 1 hd":         "tnt sports 1",
		"bein sports 1 hd":        "bein sports 1",
		"bein sport 1":            "bein sports 1",
	}

	return NewTable(channels, aliases)
}
