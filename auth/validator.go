package auth

import (
	"unicode"

	apperrors "chat-hub/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Rules holds the format bounds supplied by configuration. Username and
// password bounds gate login/register; the others gate profile and channel
// edits, where an invalid field is dropped rather than fatal.
type Rules struct {
	MinUsernameLength    int
	MaxUsernameLength    int
	MinPasswordLength    int
	MaxPasswordLength    int
	MinHandleLength      int
	MaxHandleLength      int
	MinChannelNameLength int
	MaxChannelNameLength int
	MaxDescriptionLength int
}

func (r Rules) ValidateUsername(username string) error {
	runes := []rune(username)
	if len(runes) < r.MinUsernameLength || len(runes) > r.MaxUsernameLength {
		return apperrors.Validationf("username must be %d-%d characters",
			r.MinUsernameLength, r.MaxUsernameLength)
	}
	for _, c := range runes {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return apperrors.Validationf("username must be alphanumeric")
		}
	}
	return nil
}

func (r Rules) ValidatePassword(password string) error {
	if len(password) < r.MinPasswordLength || len(password) > r.MaxPasswordLength {
		return apperrors.Validationf("password must be %d-%d characters",
			r.MinPasswordLength, r.MaxPasswordLength)
	}
	return nil
}

func (r Rules) ValidateHandle(handle string) error {
	runes := []rune(handle)
	if len(runes) < r.MinHandleLength || len(runes) > r.MaxHandleLength {
		return apperrors.Validationf("handle must be %d-%d characters",
			r.MinHandleLength, r.MaxHandleLength)
	}
	return nil
}

func (r Rules) ValidateAvatar(avatar string) error {
	if err := validate.Var(avatar, "required,url"); err != nil {
		return apperrors.Validationf("avatar must be a URL")
	}
	return nil
}

func (r Rules) ValidateChannelName(name string) error {
	runes := []rune(name)
	if len(runes) < r.MinChannelNameLength || len(runes) > r.MaxChannelNameLength {
		return apperrors.Validationf("channel name must be %d-%d characters",
			r.MinChannelNameLength, r.MaxChannelNameLength)
	}
	return nil
}

func (r Rules) ValidateDescription(description string) error {
	if len([]rune(description)) > r.MaxDescriptionLength {
		return apperrors.Validationf("description is limited to %d characters",
			r.MaxDescriptionLength)
	}
	return nil
}
