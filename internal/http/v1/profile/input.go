package profile

// CreateInput for POST /profile. TimezoneOffset accepts a number of
// minutes or a legacy string form like "+180"; it is normalized to integer
// minutes at the boundary so the services only ever see numbers. Absent
// means UTC.
type CreateInput struct {
	DisplayName    string `json:"displayName" validate:"required,min=1,max=50"`
	Bio            string `json:"bio"         validate:"max=500"`
	Birthdate      string `json:"birthdate"   validate:"required,datetime=2006-01-02"`
	Gender         string `json:"gender"      validate:"required,oneof=male female nonbinary other"`
	LookingFor     string `json:"lookingFor"  validate:"required,oneof=male female everyone"`
	City           string `json:"city"        validate:"max=100"`
	FCMToken       string `json:"fcmToken"    validate:"omitempty,max=4096"`
	TimezoneOffset any    `json:"timezoneOffset"`
}

// UpdateInput for PATCH /profile. Nil fields stay unchanged. Timezone
// changes do not go through here; they are screened by PUT /profile/timezone.
type UpdateInput struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=50"`
	Bio         *string `json:"bio,omitempty"         validate:"omitempty,max=500"`
	Gender      *string `json:"gender,omitempty"      validate:"omitempty,oneof=male female nonbinary other"`
	LookingFor  *string `json:"lookingFor,omitempty"  validate:"omitempty,oneof=male female everyone"`
	City        *string `json:"city,omitempty"        validate:"omitempty,max=100"`
	FCMToken    *string `json:"fcmToken,omitempty"    validate:"omitempty,max=4096"`
}

// TimezoneInput for PUT /profile/timezone. The offset may be a number or a
// legacy string; nil is rejected by the handler since zero (UTC) is a valid
// offset that must stay distinguishable from "not sent".
type TimezoneInput struct {
	TimezoneOffset any `json:"timezoneOffset"`
}
