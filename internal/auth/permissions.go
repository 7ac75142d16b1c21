package auth

import "github.com/yoockh/jobboard/internal/models"

type Permission string

const (
	PermPostJobs           Permission = "post_jobs"
	PermManageJobs         Permission = "manage_jobs"
	PermReviewApplications Permission = "review_applications"
	PermApplyJobs          Permission = "apply_jobs"
	PermViewDashboard      Permission = "view_dashboard"
)

// DenyReason is the reason code carried to the access-denied view.
type DenyReason string

const (
	ReasonNone              DenyReason = ""
	ReasonUnauthenticated   DenyReason = "unauthenticated"
	ReasonEmployerOnly      DenyReason = "employer_only"
	ReasonJobSeekerOnly     DenyReason = "job_seeker_only"
	ReasonMissingRole       DenyReason = "missing_role"
	ReasonUnknownPermission DenyReason = "unknown_permission"
	ReasonNotOwner          DenyReason = "not_owner"
)

func (r DenyReason) Message() string {
	switch r {
	case ReasonUnauthenticated:
		return "Please sign in to continue."
	case ReasonEmployerOnly:
		return "Only employer accounts can do this."
	case ReasonJobSeekerOnly:
		return "Only job seeker accounts can do this."
	case ReasonMissingRole:
		return "Your account has no role yet. Please complete your profile."
	case ReasonUnknownPermission:
		return "You do not have access to this page."
	case ReasonNotOwner:
		return "You can only manage your own jobs and their applications."
	default:
		return "Access denied."
	}
}

// requiredRole is the capability table; "" means any signed-in user.
var requiredRole = map[Permission]models.Role{
	PermPostJobs:           models.RoleEmployer,
	PermManageJobs:         models.RoleEmployer,
	PermReviewApplications: models.RoleEmployer,
	PermApplyJobs:          models.RoleJobSeeker,
	PermViewDashboard:      "",
}

// Check returns ReasonNone when u holds p.
func Check(u *models.User, p Permission) DenyReason {
	if u == nil || u.ID == "" {
		return ReasonUnauthenticated
	}
	role, ok := requiredRole[p]
	if !ok {
		return ReasonUnknownPermission
	}
	if role == "" {
		return ReasonNone
	}
	if !u.Role.Valid() {
		return ReasonMissingRole
	}
	if u.Role != role {
		if role == models.RoleEmployer {
			return ReasonEmployerOnly
		}
		return ReasonJobSeekerOnly
	}
	return ReasonNone
}
