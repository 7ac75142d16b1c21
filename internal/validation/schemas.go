package validation

import "encoding/json"

// Form schemas. Tags drive both gin binding (form + json) and Validate.

type LoginForm struct {
	Email      string `form:"email" json:"email" validate:"required,email"`
	Password   string `form:"password" json:"password" validate:"required"`
	RedirectTo string `form:"redirectTo" json:"redirect_to" validate:"omitempty,safepath"`
}

type SignupForm struct {
	Email           string `form:"email" json:"email" validate:"required,email"`
	Password        string `form:"password" json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `form:"role" json:"role" validate:"required,role"`
	FullName        string `form:"full_name" json:"full_name" validate:"omitempty,max=120"`
}

type ForgotPasswordForm struct {
	Email string `form:"email" json:"email" validate:"required,email"`
}

type ResetPasswordForm struct {
	Password        string `form:"password" json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" validate:"required,eqfield=Password"`
}

type ResendForm struct {
	Email string `form:"email" json:"email" validate:"required,email"`
}

type JobForm struct {
	Title       string   `form:"title" json:"title" validate:"required,min=3,max=120"`
	Company     string   `form:"company" json:"company" validate:"required,min=2,max=120"`
	Description string   `form:"description" json:"description" validate:"required,min=30,max=20000"`
	Location    string   `form:"location" json:"location" validate:"required,max=120"`
	Type        string   `form:"type" json:"type" validate:"required,jobtype"`
	Salary      string   `form:"salary" json:"salary" validate:"omitempty,max=80"`
	Tags        []string `form:"tags" json:"tags" validate:"omitempty,max=15,dive,min=1,max=40"`
}

type ApplicationForm struct {
	JobID       string `form:"job_id" json:"job_id" validate:"required,uuid"`
	CoverLetter string `form:"cover_letter" json:"cover_letter" validate:"required,min=50,max=5000"`
	ResumePath  string `form:"resume_path" json:"resume_path" validate:"omitempty,max=512"`
}

type StatusUpdateForm struct {
	Status string `form:"status" json:"status" validate:"required,appstatus"`
}

type ProfileForm struct {
	FullName  *string   `json:"full_name,omitempty" validate:"omitempty,max=120"`
	AvatarURL *string   `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Headline  *string   `json:"headline,omitempty" validate:"omitempty,max=160"`
	Skills    *[]string `json:"skills,omitempty" validate:"omitempty,max=30,dive,min=1,max=40"`

	Metadata *json.RawMessage `json:"metadata,omitempty"`
}
