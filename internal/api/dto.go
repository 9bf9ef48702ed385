package api

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/resumectl/internal/auth"
	"github.com/starford/resumectl/internal/models"
	"github.com/starford/resumectl/internal/resumeservice"
)

// CredentialsRequest is the body of register and sign-in.
type CredentialsRequest struct {
	Username string `json:"username" example:"alice" validate:"required"`
	Password string `json:"password" example:"Secr3t!" validate:"required"`
}

func validateRegister(c *CredentialsRequest) error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Username, auth.UsernameRules...),
		validation.Field(&c.Password, auth.PasswordRules...),
	)
}

func validateSignIn(c *CredentialsRequest) error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

// TokenResponse carries a signed auth token.
type TokenResponse struct {
	AuthToken string `json:"authToken" validate:"required"`
}

func validateUserUpdate(u *resumeservice.UserUpdate) error {
	return validation.ValidateStruct(u,
		validation.Field(&u.OldPassword, validation.NilOrNotEmpty),
		validation.Field(&u.NewPassword, append([]validation.Rule{validation.NilOrNotEmpty}, auth.PasswordRules[1:]...)...),
	)
}

func validateContactInfo(c *models.ContactInfoInput) error {
	return validation.ValidateStruct(c,
		validation.Field(&c.FullName, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&c.LinkedIn, is.URL),
		validation.Field(&c.GitHub, is.URL),
	)
}

func validateNewDocument(d *models.NewDocument) error {
	return validation.ValidateStruct(d,
		validation.Field(&d.DocumentName, validation.Required, validation.Length(1, 100)),
	)
}

func validateDocumentUpdate(d *models.DocumentUpdate) error {
	return validation.ValidateStruct(d,
		validation.Field(&d.DocumentName, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
}

var errBlankDate = errors.New("cannot be blank")

// requiredDate rejects the zero Date; Required cannot see through the
// embedded time.Time.
var requiredDate = validation.By(func(v any) error {
	if d, ok := v.(models.Date); ok && d.IsZero() {
		return errBlankDate
	}
	return nil
})

// notBefore checks that a date does not precede *start.
func notBefore(start *models.Date) validation.Rule {
	return validation.By(func(v any) error {
		var end models.Date
		switch d := v.(type) {
		case models.Date:
			end = d
		case *models.Date:
			if d == nil {
				return nil
			}
			end = *d
		}
		if start == nil || end.IsZero() || start.IsZero() {
			return nil
		}
		if end.Before(start.Time) {
			return errors.New("must not be before the start date")
		}
		return nil
	})
}

func validateNewEducation(e *models.NewEducation) error {
	return validation.ValidateStruct(e,
		validation.Field(&e.School, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Location, validation.Required),
		validation.Field(&e.Degree, validation.Required),
		validation.Field(&e.StartDate, requiredDate),
		validation.Field(&e.EndDate, requiredDate, notBefore(&e.StartDate)),
	)
}

func validateEducationUpdate(e *models.EducationUpdate) error {
	return validation.ValidateStruct(e,
		validation.Field(&e.School, validation.NilOrNotEmpty),
		validation.Field(&e.Location, validation.NilOrNotEmpty),
		validation.Field(&e.Degree, validation.NilOrNotEmpty),
		validation.Field(&e.EndDate, notBefore(e.StartDate)),
	)
}

func validateNewExperience(e *models.NewExperience) error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.Organization, validation.Required),
		validation.Field(&e.Location, validation.Required),
		validation.Field(&e.StartDate, requiredDate),
		validation.Field(&e.EndDate, notBefore(&e.StartDate)),
	)
}

func validateExperienceUpdate(e *models.ExperienceUpdate) error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Title, validation.NilOrNotEmpty),
		validation.Field(&e.Organization, validation.NilOrNotEmpty),
		validation.Field(&e.Location, validation.NilOrNotEmpty),
		validation.Field(&e.EndDate, notBefore(e.StartDate)),
		validation.Field(&e.ClearEndDate, validation.When(e.EndDate != nil, validation.Empty.Error("can not be set together with endDate"))),
	)
}

func validateNewSkill(s *models.NewSkill) error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 100)),
	)
}

func validateSkillUpdate(s *models.SkillUpdate) error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
}

func validateNewTextSnippet(t *models.NewTextSnippet) error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Type, validation.Required),
		validation.Field(&t.Content, validation.Required),
	)
}

// SnippetVersionRequest names one version of a text snippet.
type SnippetVersionRequest struct {
	TextSnippetVersion time.Time `json:"textSnippetVersion" example:"2024-01-02T15:04:05.123456Z" validate:"required"`
}

func validateSnippetVersion(s *SnippetVersionRequest) error {
	return validation.ValidateStruct(s,
		validation.Field(&s.TextSnippetVersion, validation.Required),
	)
}

// TextSnippetUpdateRequest names the version to update and the new values.
type TextSnippetUpdateRequest struct {
	TextSnippetVersion time.Time `json:"textSnippetVersion" validate:"required"`
	Type               *string   `json:"type,omitempty"`
	Content            *string   `json:"content,omitempty"`
}

func validateTextSnippetUpdate(t *TextSnippetUpdateRequest) error {
	return validation.ValidateStruct(t,
		validation.Field(&t.TextSnippetVersion, validation.Required),
		validation.Field(&t.Type, validation.NilOrNotEmpty),
		validation.Field(&t.Content, validation.NilOrNotEmpty),
	)
}
