// Package access resolves what a role may do in each module.
package access

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
)

// Module is an area of the application guarded by permissions.
type Module string

const (
	ModuleProducts  Module = "products"
	ModuleCustomers Module = "customers"
	ModuleOrders    Module = "orders"
	ModuleAlerts    Module = "alerts"
	ModuleStats     Module = "stats"
	ModuleActivity  Module = "activity"
	ModuleUsers     Module = "users"
)

var modules = map[Module]struct{}{
	ModuleProducts: {}, ModuleCustomers: {}, ModuleOrders: {}, ModuleAlerts: {},
	ModuleStats: {}, ModuleActivity: {}, ModuleUsers: {},
}

// Action is an operation on a module.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Flags are the per-action grants of one (role, module) pair.
type Flags struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// Has reports whether the flag for action is set.
func (f Flags) Has(action Action) bool {
	switch action {
	case ActionView:
		return f.View
	case ActionCreate:
		return f.Create
	case ActionEdit:
		return f.Edit
	case ActionDelete:
		return f.Delete
	}
	return false
}

// Permission is one row of the role permission table.
type Permission struct {
	Role   entity.Role
	Module Module
	Flags
}

// Gate answers allow/deny for (role, module, action). It is built once at
// startup and read-only afterwards.
type Gate struct {
	grants map[entity.Role]map[Module]Flags
}

// NewGate builds a Gate from permission rows. Unknown modules are rejected.
func NewGate(perms []Permission) (*Gate, error) {
	g := &Gate{grants: make(map[entity.Role]map[Module]Flags)}
	for _, p := range perms {
		if _, err := entity.ParseRole(string(p.Role)); err != nil {
			return nil, err
		}
		if _, ok := modules[p.Module]; !ok {
			return nil, fmt.Errorf("unknown module %q", p.Module)
		}
		if g.grants[p.Role] == nil {
			g.grants[p.Role] = make(map[Module]Flags)
		}
		g.grants[p.Role][p.Module] = p.Flags
	}
	return g, nil
}

// Allowed reports whether role may perform action in module. Customers may
// always create orders; every other decision comes from the table.
func (g *Gate) Allowed(role entity.Role, module Module, action Action) bool {
	if role == entity.RoleCustomer && module == ModuleOrders && action == ActionCreate {
		return true
	}
	return g.grants[role][module].Has(action)
}

// Grants returns a copy of the module flags for role, as shown to the client
// after login.
func (g *Gate) Grants(role entity.Role) map[Module]Flags {
	out := make(map[Module]Flags, len(g.grants[role]))
	for m, f := range g.grants[role] {
		out[m] = f
	}
	if role == entity.RoleCustomer {
		f := out[ModuleOrders]
		f.Create = true
		out[ModuleOrders] = f
	}
	return out
}

//go:embed permissions.yaml
var defaultPermissionsYAML []byte

// DefaultPermissions parses the embedded seed file.
func DefaultPermissions() ([]Permission, error) {
	return ParsePermissions(defaultPermissionsYAML)
}

// ParsePermissions reads a role → module → [actions] YAML document.
func ParsePermissions(data []byte) ([]Permission, error) {
	var doc map[string]map[string][]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse permissions: %w", err)
	}

	var perms []Permission
	for roleName, byModule := range doc {
		role, err := entity.ParseRole(roleName)
		if err != nil {
			return nil, err
		}
		for moduleName, actions := range byModule {
			p := Permission{Role: role, Module: Module(moduleName)}
			for _, a := range actions {
				switch Action(a) {
				case ActionView:
					p.View = true
				case ActionCreate:
					p.Create = true
				case ActionEdit:
					p.Edit = true
				case ActionDelete:
					p.Delete = true
				default:
					return nil, fmt.Errorf("unknown action %q for %s/%s", a, roleName, moduleName)
				}
			}
			perms = append(perms, p)
		}
	}

	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Role != perms[j].Role {
			return perms[i].Role < perms[j].Role
		}
		return perms[i].Module < perms[j].Module
	})
	return perms, nil
}
