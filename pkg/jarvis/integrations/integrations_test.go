package integrations

import (
	"sort"
	"testing"
)

func TestAllSorted(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatal("catalogue is empty")
	}
	names := make([]string, len(all))
	for i, integ := range all {
		names[i] = integ.Name
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("not sorted: %v", names)
	}
}

func TestLookup(t *testing.T) {
	i, err := Lookup("Discord")
	if err != nil {
		t.Fatal(err)
	}
	if i.Name != "discord" || i.Setup == "" {
		t.Errorf("integration = %+v", i)
	}

	if _, err := Lookup("telepathy"); err == nil {
		t.Error("expected error for unknown integration")
	}
}
