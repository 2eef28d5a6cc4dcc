package api

// User is the profile record as the backend returns it.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Role labels what the authenticated user is allowed to do.
type Role struct {
	RoleName string `json:"role_name"`
}

// LoginPayload is the login response: profile, role and the bearer token.
type LoginPayload struct {
	User   User   `json:"user"`
	Role   Role   `json:"role"`
	Access string `json:"access"`
}

// RegisterRequest creates a new account pending OTP verification.
type RegisterRequest struct {
	Username        string `json:"username"`
	Role            string `json:"role"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// VerifyOTPRequest confirms the one-time code mailed during registration.
type VerifyOTPRequest struct {
	Email   string `json:"email"`
	OTPCode string `json:"otp_code"`
}

// Category is a sub-category entry; CategoryType points at its parent type.
type Category struct {
	ID           int64  `json:"id"`
	CategoryName string `json:"category_name"`
	CategoryType int64  `json:"category_type"`
}

// CategoryType is a top-level category grouping.
type CategoryType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Location is a reference address used to place a service listing.
type Location struct {
	ID         int64  `json:"id"`
	Province   string `json:"province"`
	District   string `json:"district"`
	Commune    string `json:"commune"`
	Village    string `json:"village"`
	PostalCode string `json:"postal_code"`
}

// ServiceRequest is the service-creation body. Image is nil when the listing
// has no picture; the backend expects an explicit null in that case.
type ServiceRequest struct {
	Name         string  `json:"name"`
	Price        string  `json:"price"`
	Description  string  `json:"description,omitempty"`
	Category     int64   `json:"category"`
	CategoryType int64   `json:"category_type"`
	WorkingDays  string  `json:"working_days"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Location     int64   `json:"location"`
	Image        *string `json:"image"`
}

// Service is a created listing as the backend returns it.
type Service struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        string  `json:"price"`
	Description  string  `json:"description,omitempty"`
	Category     int64   `json:"category"`
	CategoryType int64   `json:"category_type"`
	WorkingDays  string  `json:"working_days"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Location     int64   `json:"location"`
	Image        *string `json:"image"`
}

// ServiceFilter narrows a listing query. Zero values mean "no filter".
type ServiceFilter struct {
	Category int64
	Search   string
}
