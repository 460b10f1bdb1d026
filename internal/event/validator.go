package event

import (
	"strings"
	"time"

	"github.com/hitoshi/guildcal/internal/model"
)

const (
	msgRequired   = "is required"
	msgNotString  = "must be a string"
	msgNotBlank   = "must not be blank"
	msgInvalidISO = "must be a valid ISO-8601 date"
)

// ValidateCreate は作成リクエストを検証し、保存前のイベントに正規化する。
// title・date・typeは必須。descriptionとtimeは省略またはnullの場合に空文字になる。
func ValidateCreate(in model.EventInput) (*model.Event, error) {
	var missing, invalid []model.FieldError

	checkRequired := func(field string, v model.OptionalString) {
		switch {
		case !v.Set || v.Null:
			missing = append(missing, model.FieldError{Field: field, Message: msgRequired})
		case v.Invalid:
			invalid = append(invalid, model.FieldError{Field: field, Message: msgNotString})
		case strings.TrimSpace(v.Value) == "":
			missing = append(missing, model.FieldError{Field: field, Message: msgNotBlank})
		}
	}
	checkRequired("title", in.Title)
	checkRequired("date", in.Date)
	checkRequired("type", in.Type)

	if len(missing) > 0 {
		return nil, model.NewMissingRequiredFieldsError(append(missing, invalid...)...)
	}

	var date time.Time
	if in.Date.Present() {
		parsed, err := ParseDate(in.Date.Value)
		if err != nil {
			invalid = append(invalid, model.FieldError{Field: "date", Message: msgInvalidISO})
		}
		date = parsed
	}
	description, descErr := optionalText("description", in.Description)
	if descErr != nil {
		invalid = append(invalid, *descErr)
	}
	displayTime, timeErr := optionalText("time", in.Time)
	if timeErr != nil {
		invalid = append(invalid, *timeErr)
	}
	if len(invalid) > 0 {
		return nil, model.NewValidationError("", invalid...)
	}

	return &model.Event{
		Title:       in.Title.Value,
		Description: description,
		Date:        date,
		Type:        in.Type.Value,
		Time:        displayTime,
	}, nil
}

// ValidateUpdate は部分更新リクエストを検証し、EventPatchに変換する。
// キーが存在するフィールドのみを検証し、存在しないフィールドはnilのまま残す。
func ValidateUpdate(in model.EventInput) (*model.EventPatch, error) {
	var fields []model.FieldError
	patch := &model.EventPatch{}

	requiredText := func(field string, v model.OptionalString) *string {
		if !v.Set {
			return nil
		}
		switch {
		case v.Null:
			fields = append(fields, model.FieldError{Field: field, Message: msgRequired})
		case v.Invalid:
			fields = append(fields, model.FieldError{Field: field, Message: msgNotString})
		case strings.TrimSpace(v.Value) == "":
			fields = append(fields, model.FieldError{Field: field, Message: msgNotBlank})
		default:
			value := v.Value
			return &value
		}
		return nil
	}
	patch.Title = requiredText("title", in.Title)
	patch.Type = requiredText("type", in.Type)

	if in.Date.Set {
		switch {
		case in.Date.Null:
			fields = append(fields, model.FieldError{Field: "date", Message: msgRequired})
		case in.Date.Invalid:
			fields = append(fields, model.FieldError{Field: "date", Message: msgNotString})
		default:
			date, err := ParseDate(in.Date.Value)
			if err != nil {
				fields = append(fields, model.FieldError{Field: "date", Message: msgInvalidISO})
			} else {
				patch.Date = &date
			}
		}
	}

	if in.Description.Set {
		description, ferr := optionalText("description", in.Description)
		if ferr != nil {
			fields = append(fields, *ferr)
		} else {
			patch.Description = &description
		}
	}
	if in.Time.Set {
		displayTime, ferr := optionalText("time", in.Time)
		if ferr != nil {
			fields = append(fields, *ferr)
		} else {
			patch.Time = &displayTime
		}
	}

	if len(fields) > 0 {
		return nil, model.NewValidationError("", fields...)
	}
	return patch, nil
}

// optionalText は任意の文字列フィールドを正規化する。nullと省略は空文字として扱う。
func optionalText(field string, v model.OptionalString) (string, *model.FieldError) {
	if v.Invalid {
		return "", &model.FieldError{Field: field, Message: msgNotString}
	}
	return v.Value, nil
}
