package models

// RouteGuard names a client-side navigation guard.
type RouteGuard string

// Guards known to the client shell.
const (
	GuardAuth RouteGuard = "AuthGuard"
	GuardRole RouteGuard = "RoleGuard"
)

// PathMatch controls how a client route path is compared with a URL.
type PathMatch string

// Path matching strategies.
const (
	PathMatchPrefix PathMatch = "prefix"
	PathMatchFull   PathMatch = "full"
)

// WildcardPath matches any URL.
const WildcardPath = "**"

// ClientRoute is one entry of the SPA route table.
type ClientRoute struct {
	Path         string       `json:"path"`
	PathMatch    PathMatch    `json:"pathMatch,omitempty"`
	RedirectTo   string       `json:"redirectTo,omitempty"`
	Component    string       `json:"component,omitempty"`
	LoadChildren string       `json:"loadChildren,omitempty"`
	Guards       []RouteGuard `json:"canActivate,omitempty"`
	AllowedRoles []UserRole   `json:"allowedRoles,omitempty"`
}

// RouteResolution is the outcome of resolving a URL against the table.
// When Denied is set, DeniedBy names the guard that refused navigation.
type RouteResolution struct {
	RequestedPath string       `json:"requestedPath"`
	Path          string       `json:"path"`
	Route         *ClientRoute `json:"route,omitempty"`
	Redirects     []string     `json:"redirects,omitempty"`
	Denied        bool         `json:"denied"`
	DeniedBy      RouteGuard   `json:"deniedBy,omitempty"`
}
