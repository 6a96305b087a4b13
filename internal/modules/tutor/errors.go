package tutor

import "errors"

var ErrProfileExists = errors.New("tutor profile already exists")
