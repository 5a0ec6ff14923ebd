package events_test

import "github.com/google/uuid"

var uuidFixed = uuid.MustParse("6b0c3f5e-0d7e-4f55-9b1c-2f4a1c8e9d10")
