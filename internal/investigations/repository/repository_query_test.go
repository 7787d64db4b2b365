package repository

import (
	"strings"
	"testing"

	"interview_portal_backend/internal/investigations/domain"
)

func TestGetContactForNoticeQueryIsNoticeScoped(t *testing.T) {
	query := strings.ToLower(getContactForNoticeQuery)

	for _, fragment := range []string{"from expert_contacts", "where id = $1 and notice_id = $2"} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected notice-scoped query fragment %q to be present", fragment)
		}
	}
}

func TestGetContactQueryHasNoNoticeFilter(t *testing.T) {
	if strings.Contains(strings.ToLower(getContactQuery), "notice_id =") {
		t.Fatal("unscoped contact lookup should not filter by notice")
	}
}

func TestUpdateContactQueryChecksVersion(t *testing.T) {
	query := strings.ToLower(updateContactQuery)

	for _, fragment := range []string{"where id = $1 and version = $2", "version = version + 1", "returning version"} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected optimistic locking fragment %q to be present", fragment)
		}
	}
	if strings.Contains(query, "notice_id =") || strings.Contains(query, "expert_id =") {
		t.Fatal("update must not rewrite the contact's notice or expert")
	}
}

func TestKnownExpertIDsQueryUsesArrayMatch(t *testing.T) {
	query := strings.ToLower(knownExpertIDsQuery)
	if !strings.Contains(query, "expert_id = any($2)") {
		t.Fatalf("expected array match on expert ids, got %q", query)
	}
}

func TestBuildListContactsQuery(t *testing.T) {
	query, args, err := buildListContactsQuery(7, ContactFilter{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(query, "WHERE notice_id = $1") || !strings.HasSuffix(query, "ORDER BY id ASC") {
		t.Fatalf("unexpected query %q", query)
	}
	if len(args) != 1 || args[0] != int64(7) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildListContactsQueryWithRdvOnly(t *testing.T) {
	query, args, err := buildListContactsQuery(7, ContactFilter{WithRdvOnly: true, ResponseStatus: domain.ResponseStatusAccepted})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(query, "appointment_status <> $2") {
		t.Fatalf("expected rdv filter in %q", query)
	}
	if !strings.Contains(query, "response_status = $3") {
		t.Fatalf("expected response filter in %q", query)
	}
	if len(args) != 3 || args[1] != "NONE" || args[2] != "ACCEPTED" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestLockClauseOnlyInsideTransaction(t *testing.T) {
	if (&Repository{}).lockClause() != "" {
		t.Fatal("plain reads must not lock rows")
	}
	if (&Repository{inTx: true}).lockClause() != " FOR UPDATE" {
		t.Fatal("transactional reads must lock rows")
	}
}
