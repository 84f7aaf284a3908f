package rbac

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"tenant_admin", RoleAdmin},
		{"editor", RoleEditor},
		{"mentor", RoleMentor},
		{"viewer", RoleViewer},
		{"content_editor", RoleEditor},
		{"student", RoleViewer},
		{"", RoleViewer},
		{"superuser", RoleViewer},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCanAccess(t *testing.T) {
	if !CanAccess(RoleViewer, AccessAny) {
		t.Error("any level must be open to viewers")
	}
	if CanAccess(RoleViewer, AccessMentorOnly) || CanAccess(RoleEditor, AccessMentorOnly) {
		t.Error("mentorOnly must exclude viewers and editors")
	}
	if !CanAccess(RoleMentor, AccessMentorOnly) || !CanAccess(RoleAdmin, AccessMentorOnly) {
		t.Error("mentorOnly must admit mentors and admins")
	}
	if CanAccess(RoleMentor, AccessAdminOnly) {
		t.Error("adminOnly must exclude mentors")
	}
	if !CanAccess(RoleAdmin, AccessAdminOnly) {
		t.Error("adminOnly must admit admins")
	}
}

func TestCanEdit(t *testing.T) {
	if CanEdit(RoleViewer) {
		t.Error("viewers must not edit")
	}
	for _, role := range []Role{RoleAdmin, RoleEditor, RoleMentor} {
		if !CanEdit(role) {
			t.Errorf("%s must be able to edit", role)
		}
	}
}
