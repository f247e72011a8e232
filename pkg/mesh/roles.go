package mesh

import (
	"fmt"
	"strings"

	"github.com/Faultbox/ripconv/pkg/rip"
)

// Role is the mesh role of a schema attribute.
type Role int

const (
	RoleUnknown Role = iota
	RolePosition
	RoleNormal
	RoleTexCoord
)

// String returns a human-readable role name.
func (r Role) String() string {
	switch r {
	case RolePosition:
		return "Position"
	case RoleNormal:
		return "Normal"
	case RoleTexCoord:
		return "TexCoord"
	case RoleUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Classify maps a semantic name to its role. Matching is case-insensitive.
func Classify(semantic string) Role {
	switch {
	case strings.EqualFold(semantic, "POSITION"):
		return RolePosition
	case strings.EqualFold(semantic, "NORMAL"):
		return RoleNormal
	case strings.EqualFold(semantic, "TEXCOORD"):
		return RoleTexCoord
	default:
		return RoleUnknown
	}
}

// Binding ties a schema attribute to its resolved role.
type Binding struct {
	Role  Role
	Index uint32 // Semantic index; distinguishes UV channels
	Attr  *rip.Attribute
}

// Roles is the role table of a schema, resolved once before assembly.
type Roles struct {
	Position         *rip.Attribute
	PositionFallback bool // Position is the first attribute, not a POSITION semantic
	Normal           *rip.Attribute
	TexCoords        []Binding // First attribute per distinct semantic index
	Unknown          []Binding
}

// Resolve classifies every attribute of the schema.
func Resolve(s *rip.Schema) Roles {
	var roles Roles
	seenUV := make(map[uint32]bool)

	for _, a := range s.Attributes {
		b := Binding{Role: Classify(a.Semantic), Index: a.SemanticIndex, Attr: a}
		switch b.Role {
		case RolePosition:
			if roles.Position == nil {
				roles.Position = a
			}
		case RoleNormal:
			if roles.Normal == nil {
				roles.Normal = a
			}
		case RoleTexCoord:
			if !seenUV[a.SemanticIndex] {
				seenUV[a.SemanticIndex] = true
				roles.TexCoords = append(roles.TexCoords, b)
			}
		default:
			roles.Unknown = append(roles.Unknown, b)
		}
	}

	if roles.Position == nil && len(s.Attributes) > 0 {
		roles.Position = s.Attributes[0]
		roles.PositionFallback = true
	}
	return roles
}
