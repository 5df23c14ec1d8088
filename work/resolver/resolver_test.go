package resolver

import "testing"

func table() *Table {
	return NewTable([]ChannelInfo{
		{ID: "Star Sports 1", DisplayOrder: 1, Logo: "http://logos/ss1.png", Allowed: true},
		{ID: "ten sports", DisplayOrder: 2, Allowed: true},
		{ID: "hidden feed", DisplayOrder: 3, Allowed: false},
	}, map[string]string{
		"star 1":          "star sports 1",
		"Star Sports One": "Star Sports 1",
		"bogus alias":     "no such channel",
	})
}

func TestResolveExactAndAlias(t *testing.T) {
	tab := table()

	cases := map[string]string{
		"star sports 1":    "star sports 1",
		"STAR  Sports   1": "star sports 1",
		"star 1":           "star sports 1",
		"Star Sports One":  "star sports 1",
		"ten sports":       "ten sports",
	}
	for raw, want := range cases {
		id, ok := tab.Resolve(raw)
		if !ok || id != want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", raw, id, ok, want)
		}
	}
}

func TestResolveDecoratedNames(t *testing.T) {
	tab := table()

	id, ok := tab.Resolve("[LIVE] Star Sports 1 FHD")
	if !ok || id != "star sports 1" {
		t.Errorf("Resolve decorated = %q, %v", id, ok)
	}
}

func TestResolveWordBoundaries(t *testing.T) {
	tab := table()

	// "kitten sports show" contains the substring "ten sports" but not on a
	// word boundary, so it must not resolve.
	if id, ok := tab.Resolve("kitten sports show"); ok {
		t.Errorf("Resolve matched %q unexpectedly", id)
	}
	if _, ok := tab.Resolve("ten sports pakistan"); !ok {
		t.Error("Resolve should match ten sports on a word boundary")
	}
}

func TestResolveNoMatch(t *testing.T) {
	tab := table()

	for _, raw := range []string{"", "   ", "completely unknown channel"} {
		if id, ok := tab.Resolve(raw); ok {
			t.Errorf("Resolve(%q) = %q, want no match", raw, id)
		}
	}
}

func TestAliasToUnknownChannelIgnored(t *testing.T) {
	if id, ok := table().Resolve("bogus alias"); ok {
		t.Errorf("alias to unknown channel resolved to %q", id)
	}
}

func TestDisplayOrderAndAllowList(t *testing.T) {
	tab := table()

	if got := tab.DisplayOrder("star sports 1"); got != 1 {
		t.Errorf("DisplayOrder = %d, want 1", got)
	}
	if got := tab.DisplayOrder("unknown channel"); got != UnknownOrder {
		t.Errorf("DisplayOrder unknown = %d, want UnknownOrder", got)
	}
	if !tab.IsAllowed("star sports 1") {
		t.Error("star sports 1 should be allowed")
	}
	if tab.IsAllowed("hidden feed") {
		t.Error("hidden feed should not be allowed")
	}
	if tab.IsAllowed("unknown channel") {
		t.Error("unknown ids are never allowed")
	}
}

func TestDefaultLogo(t *testing.T) {
	tab := table()

	if got := tab.DefaultLogo("star sports 1"); got != "http://logos/ss1.png" {
		t.Errorf("DefaultLogo = %q", got)
	}
	if got := tab.DefaultLogo("ten sports"); got != "" {
		t.Errorf("DefaultLogo for channel without logo = %q, want empty", got)
	}
}

func TestDefaultTableLoads(t *testing.T) {
	tab := DefaultTable()

	if len(tab.Channels()) == 0 {
		t.Fatal("default table is empty")
	}
	if id, ok := tab.Resolve("Willow HD"); !ok || id != "willow cricket" {
		t.Errorf("Resolve(Willow HD) = %q, %v", id, ok)
	}
}
