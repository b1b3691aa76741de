package audit

import "testing"

func TestBuildBaseQuery(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", Filter{Action: ActionTokenClaimed, EntityID: "tok-1"})
	want := "SELECT COUNT(1) FROM audit_events WHERE 1=1 AND action = $1 AND entity_id = $2"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(args) != 2 || args[0] != ActionTokenClaimed || args[1] != "tok-1" {
		t.Fatalf("unexpected args: %v", args)
	}

	query, args = buildBaseQuery("SELECT 1", Filter{})
	if query != "SELECT 1 FROM audit_events WHERE 1=1" || len(args) != 0 {
		t.Fatalf("unexpected empty filter query %q %v", query, args)
	}
}
