package identity

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/andreisalomia/mini-jira/internal/types"
)

// Verify StaticDirectory implements Directory at compile time
var _ Directory = (*StaticDirectory)(nil)

// DirectoryFile is the on-disk layout of a directory file:
//
//	users:
//	  - {id: alice, email: alice@example.com, role: admin}
//	projects:
//	  - {id: web, owner: alice, members: [bob]}
type DirectoryFile struct {
	Users    []types.User    `yaml:"users"`
	Projects []ProjectConfig `yaml:"projects"`
}

// ProjectConfig lists a project's owner and members. The owner is always a
// member.
type ProjectConfig struct {
	ID      string   `yaml:"id"`
	Owner   string   `yaml:"owner"`
	Members []string `yaml:"members"`
}

// StaticDirectory is an immutable in-memory Directory.
type StaticDirectory struct {
	users   map[string]types.User
	owners  map[string]string
	members map[string]map[string]bool
}

// NewStaticDirectory validates f and indexes it.
func NewStaticDirectory(f DirectoryFile) (*StaticDirectory, error) {
	d := &StaticDirectory{
		users:   make(map[string]types.User, len(f.Users)),
		owners:  make(map[string]string, len(f.Projects)),
		members: make(map[string]map[string]bool, len(f.Projects)),
	}
	for _, u := range f.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("directory: user without id")
		}
		if _, dup := d.users[u.ID]; dup {
			return nil, fmt.Errorf("directory: duplicate user %q", u.ID)
		}
		if u.Role == "" {
			u.Role = types.RoleMember
		}
		if u.Role != types.RoleAdmin && u.Role != types.RoleMember {
			return nil, fmt.Errorf("directory: user %q has invalid role %q", u.ID, u.Role)
		}
		d.users[u.ID] = u
	}
	for _, p := range f.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("directory: project without id")
		}
		if _, dup := d.owners[p.ID]; dup {
			return nil, fmt.Errorf("directory: duplicate project %q", p.ID)
		}
		if _, ok := d.users[p.Owner]; !ok {
			return nil, fmt.Errorf("directory: project %q owner %q is not a known user", p.ID, p.Owner)
		}
		members := map[string]bool{p.Owner: true}
		for _, m := range p.Members {
			if _, ok := d.users[m]; !ok {
				return nil, fmt.Errorf("directory: project %q member %q is not a known user", p.ID, m)
			}
			members[m] = true
		}
		d.owners[p.ID] = p.Owner
		d.members[p.ID] = members
	}
	return d, nil
}

// ParseDirectory decodes a YAML directory document.
func ParseDirectory(data []byte) (*StaticDirectory, error) {
	var f DirectoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse directory: %w", err)
	}
	return NewStaticDirectory(f)
}

// LoadDirectory reads and parses the directory file at path.
func LoadDirectory(path string) (*StaticDirectory, error) {
	// #nosec G304 - path comes from trusted configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}
	return ParseDirectory(data)
}

func (d *StaticDirectory) IsMember(_ context.Context, projectID, userID string) bool {
	return d.members[projectID][userID]
}

func (d *StaticDirectory) ProjectOwner(_ context.Context, projectID string) (string, bool) {
	owner, ok := d.owners[projectID]
	return owner, ok
}

func (d *StaticDirectory) User(_ context.Context, id string) (*types.User, bool) {
	u, ok := d.users[id]
	if !ok {
		return nil, false
	}
	return &u, true
}
