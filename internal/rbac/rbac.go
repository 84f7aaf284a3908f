package rbac

type Role string
type AccessLevel string

const (
	RoleViewer Role = "viewer"
	RoleMentor Role = "mentor"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "tenant_admin"
)

const (
	AccessAny        AccessLevel = "any"
	AccessMentorOnly AccessLevel = "mentorOnly"
	AccessAdminOnly  AccessLevel = "adminOnly"
)

// Normalize maps a raw role string to a known Role. Legacy call sites still
// send "content_editor" and "student"; unknown values degrade to viewer.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleMentor, RoleEditor, RoleAdmin:
		return Role(role)
	case "content_editor":
		return RoleEditor
	case "student":
		return RoleViewer
	default:
		return RoleViewer
	}
}

// CanAccess reports whether a role may see or use something gated at the
// given access level. Admins see everything; mentors additionally see
// mentorOnly material.
func CanAccess(role Role, level AccessLevel) bool {
	switch level {
	case AccessAdminOnly:
		return role == RoleAdmin
	case AccessMentorOnly:
		return role == RoleAdmin || role == RoleMentor
	default:
		return true
	}
}

// CanEdit reports whether a role may mutate content at all.
func CanEdit(role Role) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleMentor
}
