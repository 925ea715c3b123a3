package injection

import "strings"

const (
	captureLanguage          = "language"
	captureCombined          = "combined"
	captureContent           = "content"
	captureInjectionLanguage = "injection.language"
	captureInjectionCombined = "injection.combined"
	captureInjectionContent  = "injection.content"
)

// Pattern property keys honoured on injection patterns, e.g. (#set! injection.language "lua").
const (
	PropertyLanguage = captureInjectionLanguage
	PropertyCombined = captureInjectionCombined
)

// Role is the part a capture plays in an injection match.
type Role uint8

const (
	// RoleOther captures name the injected language and mark the content at once.
	RoleOther Role = iota
	// RoleLanguage captures hold the name of the injected language as source text.
	RoleLanguage
	// RoleCombined captures mark the match as part of a combined injection.
	RoleCombined
	// RoleContent captures mark the node to parse with the injected language.
	RoleContent
	// RoleIgnored captures are private to predicates; their names start with an underscore.
	RoleIgnored
)

func (r Role) String() string {
	switch r {
	case RoleLanguage:
		return "language"
	case RoleCombined:
		return "combined"
	case RoleContent:
		return "content"
	case RoleIgnored:
		return "ignored"
	default:
		return "other"
	}
}

// RoleOf classifies a capture name.
func RoleOf(name string) Role {
	switch name {
	case captureLanguage, captureInjectionLanguage:
		return RoleLanguage
	case captureCombined, captureInjectionCombined:
		return RoleCombined
	case captureContent, captureInjectionContent:
		return RoleContent
	}
	if strings.HasPrefix(name, "_") {
		return RoleIgnored
	}
	return RoleOther
}

// Roles holds the role and name of every capture of a compiled query, by capture index.
type Roles struct {
	roles []Role
	names []string
}

// Classify resolves the roles of a query's captures once.
func Classify(names []string) Roles {
	roles := make([]Role, len(names))
	for i, name := range names {
		roles[i] = RoleOf(name)
	}
	return Roles{roles: roles, names: names}
}

// Role returns the role of the capture. Unknown indices are RoleOther.
func (r Roles) Role(index uint) Role {
	if index >= uint(len(r.roles)) {
		return RoleOther
	}
	return r.roles[index]
}

// Name returns the name of the capture.
func (r Roles) Name(index uint) string {
	if index >= uint(len(r.names)) {
		return ""
	}
	return r.names[index]
}
