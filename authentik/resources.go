package authentik

// Management-API resource models. Only the fields the portal renders are
// decoded; everything else in the upstream payload is ignored.

type User struct {
	PK        int    `json:"pk"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	LastLogin string `json:"last_login"`
}

type Group struct {
	PK       string `json:"pk"`
	Name     string `json:"name"`
	Parent   string `json:"parent"`
	NumUsers int    `json:"num_pk"`
}

type Role struct {
	PK   string `json:"pk"`
	Name string `json:"name"`
}

type ScopeMapping struct {
	PK          string `json:"pk"`
	Name        string `json:"name"`
	ScopeName   string `json:"scope_name"`
	Description string `json:"description"`
	Expression  string `json:"expression"`
}

// ScopeMappingRequest is the create payload for a scope mapping.
type ScopeMappingRequest struct {
	Name        string `json:"name"`
	ScopeName   string `json:"scope_name"`
	Description string `json:"description"`
	Expression  string `json:"expression"`
}

// resultsEnvelope is the list envelope every v3 collection endpoint wraps its
// items in.
type resultsEnvelope[T any] struct {
	Results []T `json:"results"`
}
