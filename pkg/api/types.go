package api

// User is the backend's view of an authenticated account. The session layer
// treats a snapshot without an ID and email as absent.
type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	LinkedinURL    string `json:"linkedin_url,omitempty"`
	GithubURL      string `json:"github_url,omitempty"`
	GithubUsername string `json:"github_username,omitempty"`
	Skills         string `json:"skills,omitempty"`
	Preferences    string `json:"preferences,omitempty"`
	ResumeFilename string `json:"resume_filename,omitempty"`
}

// SessionPayload is the token grant issued by login and refresh.
type SessionPayload struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// MeResponse is the body of GET /auth/me.
type MeResponse struct {
	User *User `json:"user"`
}

// RefreshResponse is the body of POST /auth/refresh.
type RefreshResponse struct {
	Session *SessionPayload `json:"session"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Name      string `json:"name"`
	LoginCode string `json:"login_code"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Message string          `json:"message"`
	User    *User           `json:"user"`
	Session *SessionPayload `json:"session"`
}

// ProfileUpdateRequest is the body of PUT /users/profile. Zero-valued
// fields are left unchanged server-side.
type ProfileUpdateRequest struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	LinkedinURL string `json:"linkedin_url,omitempty"`
	Skills      string `json:"skills,omitempty"`
	Preferences string `json:"preferences,omitempty"`
}

// GithubLoginResponse is the body of GET /auth/github/login: the provider
// authorization URL plus the anti-forgery state minted by the server.
type GithubLoginResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// GithubUser is the subset of the provider profile the backend relays.
type GithubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

// GithubCallbackResponse is the body of GET /auth/github/callback.
// GithubLinked reports the account was already linked; in that case no
// further link call is needed.
type GithubCallbackResponse struct {
	GithubLinked bool        `json:"github_linked"`
	GithubUser   *GithubUser `json:"github_user,omitempty"`
	AccessToken  string      `json:"access_token,omitempty"`
}

// GithubLinkRequest is the body of POST /auth/github/link.
type GithubLinkRequest struct {
	UserID         int64  `json:"user_id"`
	GithubID       int64  `json:"github_id"`
	AccessToken    string `json:"access_token"`
	GithubUsername string `json:"github_username"`
}
