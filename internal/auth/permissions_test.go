package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yoockh/jobboard/internal/models"
)

func TestCheck(t *testing.T) {
	employer := &models.User{ID: "e", Role: models.RoleEmployer}
	seeker := &models.User{ID: "s", Role: models.RoleJobSeeker}
	noRole := &models.User{ID: "n"}

	cases := []struct {
		user *models.User
		perm Permission
		want DenyReason
	}{
		{nil, PermViewDashboard, ReasonUnauthenticated},
		{employer, PermPostJobs, ReasonNone},
		{employer, PermManageJobs, ReasonNone},
		{employer, PermReviewApplications, ReasonNone},
		{employer, PermApplyJobs, ReasonJobSeekerOnly},
		{seeker, PermApplyJobs, ReasonNone},
		{seeker, PermPostJobs, ReasonEmployerOnly},
		{seeker, PermManageJobs, ReasonEmployerOnly},
		{seeker, PermViewDashboard, ReasonNone},
		{noRole, PermViewDashboard, ReasonNone},
		{noRole, PermPostJobs, ReasonMissingRole},
		{employer, Permission("delete_everything"), ReasonUnknownPermission},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Check(tc.user, tc.perm), "%v %s", tc.user, tc.perm)
	}
}
